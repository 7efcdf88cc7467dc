package sema

import (
	"go.uber.org/zap"

	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/logging"
)

// Result is everything the semantic pass produces: the Artifact output
// surface plus the per-Alt predict sets, which are too fine-grained to live
// densely indexed by rule id alongside the rest of RuleInfo.
type Result struct {
	Artifact *Artifact
	Predicts AltPredicts
}

// Analyze runs every phase of the semantic pass over file in order,
// reporting into sink and returning the analyzed-grammar artifact. It never
// halts partway through: a phase that finds a rule invalid excludes that
// rule from subsequent phases (logged at Debug) rather than aborting the
// whole pass, so the pipeline always produces a complete diagnostic list and
// a best-effort artifact, per the single-threaded, synchronous, no-cancel
// concurrency model.
func Analyze(sink *diag.Sink, file *ast.File, log *zap.Logger) *Result {
	if log == nil {
		log = zap.NewNop()
	}

	collectLog := logging.PhaseLogger(log, "collect")
	collectLog.Debug("symbol tables")
	a := collect(sink, file)
	resolveSkipRightStart(sink, a)

	phaseR := logging.PhaseLogger(log, "R:resolution")
	phaseR.Debug("resolving references", zap.Int("rules", len(a.Rules)), zap.Int("tokens", len(a.Tokens)))
	resolveRefs(sink, a)

	phaseP := logging.PhaseLogger(log, "P:productivity")
	phaseP.Debug("computing productivity")
	computeProductivity(sink, a)
	excluded := 0
	for _, r := range a.Rules {
		if r.Excluded {
			excluded++
		}
	}
	if excluded > 0 {
		phaseP.Debug("excluded unproductive rules", zap.Int("count", excluded))
	}

	phaseN := logging.PhaseLogger(log, "N:nullable")
	phaseN.Debug("computing nullable fixpoint")
	computeNullable(a)

	phaseF := logging.PhaseLogger(log, "F:first/follow")
	phaseF.Debug("computing FIRST and FOLLOW")
	computeFirst(a)
	computeFollow(a)

	phaseD := logging.PhaseLogger(log, "D:predict")
	phaseD.Debug("computing predict sets and conflicts")
	predicts := computePredictAndConflicts(sink, a)

	phaseC := logging.PhaseLogger(log, "C:classify")
	phaseC.Debug("classifying rules")
	classifyRules(sink, a)

	phaseG := logging.PhaseLogger(log, "G:recovery")
	phaseG.Debug("computing dominators and recovery sets")
	computeDominators(a)
	computeRecoverySets(a)

	phaseE := logging.PhaseLogger(log, "E:final-checks")
	phaseE.Debug("running final checks")
	finalChecks(sink, a)

	if sink.Truncated() {
		log.Warn("diagnostic sink truncated", zap.Int("max_errors", sink.MaxErrors))
	}
	log.Debug("analysis complete", zap.Int("diagnostics", sink.Len()), zap.Bool("has_errors", sink.HasErrors()))

	return &Result{Artifact: a, Predicts: predicts}
}
