// Package cache stores the analyzed-grammar artifact for a grammar source
// keyed by a content hash, so a long-running IDE/editor integration does
// not re-run the fixpoint phases of the semantic pass on an unchanged
// file. Entries are serialized with the teacher's own binary encoding
// style (internal/tunascript/binary.go's length-prefixed primitives) and
// framed through github.com/dekarrin/rezi's EncBinary/DecBinary, the same
// pairing the teacher uses to persist a *game.State inside sqlite.
package cache

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/0x2a-42/lelwel/internal/sema"
	"github.com/0x2a-42/lelwel/internal/setutil"
)

// Entry is the cached projection of a sema.Result: enough of the analyzed
// artifact to report diagnostics and rule classifications again without
// recomputing the fixpoints, but not the AST itself (the caller still has
// the source text and can reparse cheaply if it needs the tree).
type Entry struct {
	Diagnostics []DiagnosticRecord
	Rules       []RuleRecord
	StartRule   int
}

// DiagnosticRecord is one diagnostic, rendered the way diag.Sink formats it
// plus its machine-readable fields.
type DiagnosticRecord struct {
	Code     int
	Severity int
	Message  string
	Line     int
	Col      int
}

// RuleRecord is one rule's cached classification and token-id sets.
type RuleRecord struct {
	Name       string
	Class      int
	First      []int
	Follow     []int
	Recovery   []int
	Reachable  bool
	Productive bool
}

// NewEntry projects a sema.Result and its rendered diagnostics into a
// cacheable Entry.
func NewEntry(res *sema.Result, rendered []string, records []DiagnosticRecord) Entry {
	e := Entry{
		Diagnostics: records,
		StartRule:   res.Artifact.StartRule,
	}
	for _, r := range res.Artifact.Rules {
		e.Rules = append(e.Rules, RuleRecord{
			Name:       r.Name,
			Class:      int(r.Class),
			First:      setutil.SortedElements(r.First, func(a, b int) bool { return a < b }),
			Follow:     setutil.SortedElements(r.Follow, func(a, b int) bool { return a < b }),
			Recovery:   setutil.SortedElements(r.Recovery, func(a, b int) bool { return a < b }),
			Reachable:  r.Reachable,
			Productive: r.Productive,
		})
	}
	_ = rendered // rendered text isn't stored; callers re-render from records.
	return e
}

func encBinaryBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func decBinaryBool(data []byte) (bool, int, error) {
	if len(data) < 1 {
		return false, 0, fmt.Errorf("cache: unexpected end of data reading bool")
	}
	return data[0] != 0, 1, nil
}

func encBinaryInt(i int) []byte {
	enc := make([]byte, 8)
	n := binary.PutVarint(enc, int64(i))
	return enc[:n]
}

func decBinaryInt(data []byte) (int, int, error) {
	val, n := binary.Varint(data)
	if n <= 0 {
		return 0, 0, fmt.Errorf("cache: malformed varint")
	}
	return int(val), n, nil
}

func encBinaryString(s string) []byte {
	enc := make([]byte, 0, len(s)+8)
	runeCount := 0
	for range s {
		runeCount++
	}
	enc = append(enc, encBinaryInt(runeCount)...)
	enc = append(enc, []byte(s)...)
	return enc
}

func decBinaryString(data []byte) (string, int, error) {
	runeCount, n, err := decBinaryInt(data)
	if err != nil {
		return "", 0, fmt.Errorf("cache: decode string length: %w", err)
	}
	data = data[n:]
	read := n

	start := 0
	for i := 0; i < runeCount; i++ {
		if start >= len(data) {
			return "", 0, fmt.Errorf("cache: unexpected end of data in string")
		}
		_, size := utf8.DecodeRune(data[start:])
		start += size
	}
	s := string(data[:start])
	return s, read + start, nil
}

func encBinaryIntSlice(xs []int) []byte {
	enc := encBinaryInt(len(xs))
	for _, x := range xs {
		enc = append(enc, encBinaryInt(x)...)
	}
	return enc
}

func decBinaryIntSlice(data []byte) ([]int, int, error) {
	count, n, err := decBinaryInt(data)
	if err != nil {
		return nil, 0, fmt.Errorf("cache: decode slice length: %w", err)
	}
	read := n
	data = data[n:]

	xs := make([]int, 0, count)
	for i := 0; i < count; i++ {
		v, vn, err := decBinaryInt(data)
		if err != nil {
			return nil, 0, fmt.Errorf("cache: decode slice element %d: %w", i, err)
		}
		xs = append(xs, v)
		data = data[vn:]
		read += vn
	}
	return xs, read, nil
}

// MarshalBinary implements encoding.BinaryMarshaler, the interface
// github.com/dekarrin/rezi's EncBinary requires of the value it frames.
func (e Entry) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, encBinaryInt(e.StartRule)...)

	data = append(data, encBinaryInt(len(e.Diagnostics))...)
	for _, d := range e.Diagnostics {
		data = append(data, encBinaryInt(d.Code)...)
		data = append(data, encBinaryInt(d.Severity)...)
		data = append(data, encBinaryString(d.Message)...)
		data = append(data, encBinaryInt(d.Line)...)
		data = append(data, encBinaryInt(d.Col)...)
	}

	data = append(data, encBinaryInt(len(e.Rules))...)
	for _, r := range e.Rules {
		data = append(data, encBinaryString(r.Name)...)
		data = append(data, encBinaryInt(r.Class)...)
		data = append(data, encBinaryIntSlice(r.First)...)
		data = append(data, encBinaryIntSlice(r.Follow)...)
		data = append(data, encBinaryIntSlice(r.Recovery)...)
		data = append(data, encBinaryBool(r.Reachable)...)
		data = append(data, encBinaryBool(r.Productive)...)
	}

	return data, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (e *Entry) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	e.StartRule, n, err = decBinaryInt(data)
	if err != nil {
		return fmt.Errorf("start rule: %w", err)
	}
	data = data[n:]

	diagCount, n, err := decBinaryInt(data)
	if err != nil {
		return fmt.Errorf("diagnostic count: %w", err)
	}
	data = data[n:]

	e.Diagnostics = make([]DiagnosticRecord, 0, diagCount)
	for i := 0; i < diagCount; i++ {
		var d DiagnosticRecord
		d.Code, n, err = decBinaryInt(data)
		if err != nil {
			return fmt.Errorf("diagnostic %d code: %w", i, err)
		}
		data = data[n:]
		d.Severity, n, err = decBinaryInt(data)
		if err != nil {
			return fmt.Errorf("diagnostic %d severity: %w", i, err)
		}
		data = data[n:]
		d.Message, n, err = decBinaryString(data)
		if err != nil {
			return fmt.Errorf("diagnostic %d message: %w", i, err)
		}
		data = data[n:]
		d.Line, n, err = decBinaryInt(data)
		if err != nil {
			return fmt.Errorf("diagnostic %d line: %w", i, err)
		}
		data = data[n:]
		d.Col, n, err = decBinaryInt(data)
		if err != nil {
			return fmt.Errorf("diagnostic %d col: %w", i, err)
		}
		data = data[n:]
		e.Diagnostics = append(e.Diagnostics, d)
	}

	ruleCount, n, err := decBinaryInt(data)
	if err != nil {
		return fmt.Errorf("rule count: %w", err)
	}
	data = data[n:]

	e.Rules = make([]RuleRecord, 0, ruleCount)
	for i := 0; i < ruleCount; i++ {
		var r RuleRecord
		r.Name, n, err = decBinaryString(data)
		if err != nil {
			return fmt.Errorf("rule %d name: %w", i, err)
		}
		data = data[n:]
		r.Class, n, err = decBinaryInt(data)
		if err != nil {
			return fmt.Errorf("rule %d class: %w", i, err)
		}
		data = data[n:]
		r.First, n, err = decBinaryIntSlice(data)
		if err != nil {
			return fmt.Errorf("rule %d first: %w", i, err)
		}
		data = data[n:]
		r.Follow, n, err = decBinaryIntSlice(data)
		if err != nil {
			return fmt.Errorf("rule %d follow: %w", i, err)
		}
		data = data[n:]
		r.Recovery, n, err = decBinaryIntSlice(data)
		if err != nil {
			return fmt.Errorf("rule %d recovery: %w", i, err)
		}
		data = data[n:]
		r.Reachable, n, err = decBinaryBool(data)
		if err != nil {
			return fmt.Errorf("rule %d reachable: %w", i, err)
		}
		data = data[n:]
		r.Productive, _, err = decBinaryBool(data)
		if err != nil {
			return fmt.Errorf("rule %d productive: %w", i, err)
		}
		e.Rules = append(e.Rules, r)
	}

	return nil
}
