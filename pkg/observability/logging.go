package observability

import (
	"log/slog"

	"github.com/aretw0/qx32/pkg/domain"
)

// LogHooks returns callbacks that log phase changes, committed steps and results.
// Typing and glitch frames are too chatty and are left out.
func LogHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnPhase: func(id string, phase domain.Phase) {
			logger.Info("phase", "session_id", id, "phase", phase)
		},
		OnReject: func(id string, msg string) {
			logger.Info("reject", "session_id", id, "reason", msg)
		},
		OnStep: func(id string, step domain.StepOutcome) {
			logger.Debug("step",
				"session_id", id,
				"index", step.Index,
				"line", step.Line,
				"status", step.Status,
			)
		},
		OnResult: func(id string, r domain.Result) {
			if r.IsError() {
				logger.Warn("result",
					"session_id", id,
					"kind", r.Kind,
					"code", r.Code,
					"message", r.Message,
				)
				return
			}
			logger.Info("result",
				"session_id", id,
				"kind", r.Kind,
				"answer", r.Answer,
				"probability", r.Probability,
			)
		},
	}
}
