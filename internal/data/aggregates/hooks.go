package aggregates

import (
	"time"

	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// Hooks captures transaction-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type logHooks struct {
	log *logger.Logger
}

// NewLogHooks reports operations through log. A nil log disables them.
func NewLogHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &logHooks{log: log.With("component", "TxHooks")}
}

func (h *logHooks) ObserveOperation(name, status string, dur time.Duration) {
	if status == statusSuccess {
		h.log.Debug("Transaction committed", "op", name, "duration_ms", dur.Milliseconds())
		return
	}
	h.log.Warn("Transaction failed", "op", name, "status", status, "duration_ms", dur.Milliseconds())
}

func (h *logHooks) IncConflict(name string) {
	h.log.Warn("Transaction conflict", "op", name)
}

func (h *logHooks) IncRetry(name string) {
	h.log.Info("Retrying transaction", "op", name)
}
