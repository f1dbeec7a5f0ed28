package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

func TestInjectedTxRunner(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name     string
		runner   *InjectedTxRunner
		body     error
		wantErr  error
		commit   int
		rollback int
		bodyRuns bool
	}{
		{"commit", &InjectedTxRunner{}, nil, nil, 1, 0, true},
		{"body error", &InjectedTxRunner{}, boom, boom, 0, 1, true},
		{"commit error", &InjectedTxRunner{FailCommit: boom}, nil, boom, 0, 1, true},
		{"begin error", &InjectedTxRunner{FailBegin: boom}, nil, boom, 0, 0, false},
		{"fail first", &InjectedTxRunner{FailFirst: 1, FailErr: boom}, nil, boom, 0, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ran := false
			err := tc.runner.InTx(context.Background(), func(_ dbctx.Context) error {
				ran = true
				return tc.body
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err=%v want %v", err, tc.wantErr)
			}
			if ran != tc.bodyRuns {
				t.Fatalf("body ran=%v want %v", ran, tc.bodyRuns)
			}
			if tc.runner.CommitCalls != tc.commit || tc.runner.RollbackCalls != tc.rollback {
				t.Fatalf("commit=%d rollback=%d", tc.runner.CommitCalls, tc.runner.RollbackCalls)
			}
		})
	}
}
