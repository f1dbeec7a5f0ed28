package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/conscious-backend/internal/data/aggregates"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

// InjectedTxRunner runs fn without a database and injects failures at the
// begin, body and commit steps.
type InjectedTxRunner struct {
	mu sync.Mutex

	FailBegin  error
	FailCommit error
	// FailFirst makes the first N attempts fail with FailErr before fn runs.
	FailFirst int
	FailErr   error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	attempt := r.BeginCalls
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	failEarly := attempt <= r.FailFirst
	failErr := r.FailErr
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failEarly {
		r.rollback()
		return failErr
	}
	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			r.rollback()
			return err
		}
	}
	if failCommit != nil {
		r.rollback()
		return failCommit
	}
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
	return nil
}

func (r *InjectedTxRunner) rollback() {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
}
