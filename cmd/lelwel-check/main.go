/*
Lelwel-check runs the grammar front-end and analysis pipeline over a single
`.llw` file and prints its diagnostics.

Usage:

	lelwel-check [flags] FILE

The flags are:

	-v, --version
		Give the current version of lelwel-check and then exit.

	-c, --config FILE
		Load configuration (max error count, log level, cache settings) from
		the given TOML file. If not given, built-in defaults are used.

	-m, --max-errors N
		Cap the number of diagnostics the sink retains before truncating.
		Overrides the value from --config if both are given.

This is deliberately not a parser-generator CLI: it does not emit code and
has no -o output flag. It only exists to exercise the core pipeline
end-to-end and print what the diagnostic sink collected, in the fixed
"<path>:<line>:<col>: <severity>: <message>" format.
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/0x2a-42/lelwel"
	"github.com/0x2a-42/lelwel/internal/cache"
	"github.com/0x2a-42/lelwel/internal/config"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/logging"
	"github.com/0x2a-42/lelwel/internal/version"
)

const (
	// ExitSuccess indicates the grammar analyzed with no errors.
	ExitSuccess = iota

	// ExitAnalysisError indicates the grammar produced at least one error
	// diagnostic.
	ExitAnalysisError

	// ExitInitError indicates a problem reading the file or configuration
	// before analysis could run.
	ExitInitError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of lelwel-check and then exit")
	flagConfig  = pflag.StringP("config", "c", "", "Load configuration from the given TOML file")
	flagMaxErrs = pflag.IntP("max-errors", "m", 0, "Cap the diagnostic sink size (overrides --config)")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("lelwel-check %s\n", version.Current)
		return
	}

	args := pflag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: lelwel-check [flags] FILE\n")
		returnCode = ExitInitError
		return
	}
	path := args[0]

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	if *flagMaxErrs > 0 {
		cfg.MaxErrors = *flagMaxErrs
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid configuration: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	log := logging.New()
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel.String()); err == nil {
		log = log.WithOptions(zap.IncreaseLevel(lvl))
	}
	defer log.Sync()

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARN: could not open analysis cache, continuing without it: %s\n", err.Error())
		} else {
			defer store.Close()
		}
	}

	sink := diag.NewSink(path, cfg.MaxErrors)
	sess := lelwel.NewSession(log)

	if store != nil {
		key := cache.Key(string(src))
		if entry, err := store.Get(context.Background(), key); err == nil {
			printCachedEntry(path, entry)
			if len(entry.Diagnostics) > 0 {
				for _, d := range entry.Diagnostics {
					if diag.Severity(d.Severity) == diag.SeverityError {
						returnCode = ExitAnalysisError
						break
					}
				}
			}
			return
		}
	}

	_, res := sess.Analyze(sink, string(src))

	for _, line := range sink.FormatAll() {
		fmt.Println(line)
	}

	if sink.HasErrors() {
		returnCode = ExitAnalysisError
	}

	if store != nil && res != nil {
		records := make([]cache.DiagnosticRecord, 0, sink.Len())
		for _, d := range sink.Sorted() {
			records = append(records, cache.DiagnosticRecord{
				Code:     int(d.Code),
				Severity: int(d.Severity),
				Message:  d.Message,
				Line:     d.Range.Start.Line,
				Col:      d.Range.Start.Col,
			})
		}
		entry := cache.NewEntry(res, sink.FormatAll(), records)
		key := cache.Key(string(src))
		if err := store.Put(context.Background(), key, entry); err != nil {
			fmt.Fprintf(os.Stderr, "WARN: could not write analysis cache: %s\n", err.Error())
		}
	}
}

func printCachedEntry(path string, entry cache.Entry) {
	for _, d := range entry.Diagnostics {
		sev := "error"
		if diag.Severity(d.Severity) == diag.SeverityWarning {
			sev = "warning"
		}
		fmt.Printf("%s:%d:%d: %s: %s\n", path, d.Line, d.Col, sev, d.Message)
	}
}
