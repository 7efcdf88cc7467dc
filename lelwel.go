// Package lelwel drives the grammar front-end and analysis pipeline
// (lexer, AST builder, and the eight-phase semantic pass) over a single
// `.llw` grammar source, the same single entry-point shape the teacher
// project's own Engine used to wrap its game-state pipeline for a driving
// shell to call.
package lelwel

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/astbuild"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/logging"
	"github.com/0x2a-42/lelwel/internal/sema"
)

// Session is one invocation of the pipeline over one grammar source. It
// carries a correlation id so a driving embedder (the httpapi transport,
// an IDE/editor integration issuing many analyses concurrently) can tell
// concurrent invocations apart in shared logs, mirroring the teacher's own
// per-request session id threading in its server transport.
type Session struct {
	ID  string
	Log *zap.Logger
}

// NewSession creates a Session with a fresh correlation id. If log is nil,
// a no-op logger is used; callers that want visibility into phase timing
// should pass a *zap.Logger built with logging.New.
func NewSession(log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{ID: id, Log: logging.WithSession(log, id)}
}

// Analyze runs the full pipeline (lex, parse, semantic pass) over src,
// reporting diagnostics into sink (whose Path is used when they are
// formatted). It returns the parsed AST and the semantic pass's result; both
// are always non-nil: on lexical or parse errors the AST is simply smaller,
// and the result holds whatever the semantic pass could compute.
func (s *Session) Analyze(sink *diag.Sink, src string) (*ast.File, *sema.Result) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	file := astbuild.Parse(sink, src)
	res := sema.Analyze(sink, file, log)
	return file, res
}

// Analyze is a convenience wrapper that opens a fresh Session with a no-op
// logger, runs the pipeline once, and discards the session afterwards, for
// one-shot callers that need no logging.
func Analyze(path, src string, maxErrors int) (*diag.Sink, *ast.File, *sema.Result) {
	if maxErrors <= 0 {
		maxErrors = diag.DefaultMaxErrors
	}
	sink := diag.NewSink(path, maxErrors)
	sess := NewSession(nil)
	file, res := sess.Analyze(sink, src)
	return sink, file, res
}
