package aggregates

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

// TxRunner is the transaction boundary shared by relational and graph writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

// InTx commits when fn returns nil and rolls back everything otherwise.
func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domain.NewError(domain.CodeStorage, "tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
