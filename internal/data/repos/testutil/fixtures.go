package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/domain"
)

func SeedSource(tb testing.TB, ctx context.Context, tx *gorm.DB, typ, identifier string) *domain.Source {
	tb.Helper()
	s := &domain.Source{
		Type:       typ,
		Identifier: identifier,
		GUID:       uuid.NewSHA1(uuid.NameSpaceDNS, []byte(typ+":"+identifier)),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed source: %v", err)
	}
	return s
}

func SeedThought(tb testing.TB, ctx context.Context, tx *gorm.DB, text string, vec []float32) *domain.Thought {
	tb.Helper()
	th := &domain.Thought{Text: text, Embedding: pgvector.NewVector(vec)}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed thought: %v", err)
	}
	return th
}

// SeedDueThought seeds a thought with a due time and discard flag set.
func SeedDueThought(tb testing.TB, ctx context.Context, tx *gorm.DB, text string, due *time.Time, discard bool) *domain.Thought {
	tb.Helper()
	th := &domain.Thought{
		Text:       text,
		Embedding:  pgvector.NewVector([]float32{1, 0, 0}),
		SrsDue:     due,
		SrsDiscard: PtrBool(discard),
	}
	if due != nil {
		th.SrsState = domain.StateReview
	}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed due thought: %v", err)
	}
	return th
}

// SeedDueThoughtWithID is SeedDueThought with a caller-chosen primary key.
func SeedDueThoughtWithID(tb testing.TB, ctx context.Context, tx *gorm.DB, id int64, text string, due *time.Time) *domain.Thought {
	tb.Helper()
	th := &domain.Thought{
		ID:         id,
		Text:       text,
		Embedding:  pgvector.NewVector([]float32{1, 0, 0}),
		SrsDue:     due,
		SrsDiscard: PtrBool(false),
	}
	if due != nil {
		th.SrsState = domain.StateReview
	}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed due thought %d: %v", id, err)
	}
	return th
}

func PtrBool(v bool) *bool          { return &v }
func PtrTime(v time.Time) *time.Time { return &v }
