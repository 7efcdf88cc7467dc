// Package logging wraps go.uber.org/zap into the shape the semantic pass's
// phases log through: a Debug entry at the start of each phase (some with
// counts), one completion entry, and sink-truncation warnings. This is the structured-logging layer the teacher project never
// had occasion to build (it only ever used bare fmt.Println for ad-hoc
// debug output); it is adopted here from the other grammar/LSP-shaped repo
// in the retrieval pack, which uses zap for exactly this kind of
// phase-by-phase pipeline logging.
package logging

import "go.uber.org/zap"

// New builds a development-mode zap logger (human-readable console output,
// debug level enabled) suitable for a short-lived CLI invocation. Production
// embedders of this package are expected to build and inject their own
// *zap.Logger via WithSession instead.
func New() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		// zap.NewDevelopment only fails on a broken encoder config, which
		// never happens with the defaults used here.
		return zap.NewNop()
	}
	return l
}

// WithSession returns a logger that tags every entry with a correlation id,
// so that concurrently running analyses (e.g. from multiple editor buffers
// driving the httpapi transport) can be told apart in shared logs.
func WithSession(l *zap.Logger, sessionID string) *zap.Logger {
	return l.With(zap.String("session", sessionID))
}

// PhaseLogger scopes a logger to one named semantic-pass phase.
func PhaseLogger(l *zap.Logger, phase string) *zap.Logger {
	return l.With(zap.String("phase", phase))
}
