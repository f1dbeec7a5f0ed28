package knowledge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/conscious-backend/internal/data/repos/testutil"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

func newSource(typ, identifier string) *domain.Source {
	return &domain.Source{
		Type:       typ,
		Identifier: identifier,
		GUID:       uuid.NewSHA1(uuid.NameSpaceDNS, []byte(typ+":"+identifier)),
	}
}

func TestSourceRepo(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewSourceRepo(db, testutil.Logger(t))

	got, err := repo.GetByNaturalKey(dbc, "book", "isbn=123")
	if err != nil || got != nil {
		t.Fatalf("GetByNaturalKey(missing): got=%v err=%v", got, err)
	}

	first, created, err := repo.InsertIfAbsent(dbc, newSource("book", "isbn=123"))
	if err != nil || !created || first.ID == 0 {
		t.Fatalf("InsertIfAbsent(first): row=%v created=%v err=%v", first, created, err)
	}
	second, created, err := repo.InsertIfAbsent(dbc, newSource("book", "isbn=123"))
	if err != nil || created || second.ID != first.ID {
		t.Fatalf("InsertIfAbsent(second): row=%v created=%v err=%v", second, created, err)
	}

	var n int64
	if err := db.Model(&domain.Source{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("source count=%d err=%v", n, err)
	}

	other, _, err := repo.InsertIfAbsent(dbc, newSource("website", "url=x"))
	if err != nil {
		t.Fatalf("InsertIfAbsent(other): %v", err)
	}
	rows, err := repo.GetByIDs(dbc, []int64{first.ID, other.ID, 999})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: len=%d err=%v", len(rows), err)
	}
	if got, err := repo.GetByNaturalKey(dbc, "book", "isbn=123"); err != nil || got == nil || got.ID != first.ID {
		t.Fatalf("GetByNaturalKey: got=%v err=%v", got, err)
	}
}

func TestSourceRepoAppendContents(t *testing.T) {
	db := testutil.SQLite(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewSourceRepo(db, testutil.Logger(t))

	src, _, err := repo.InsertIfAbsent(dbc, newSource("book", "isbn=1"))
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	if err := repo.AppendContents(dbc, src.ID, []string{"https://b/a.txt", ""}); err != nil {
		t.Fatalf("AppendContents: %v", err)
	}
	if err := repo.AppendContents(dbc, src.ID, []string{"https://b/a.txt", "https://b/b.txt"}); err != nil {
		t.Fatalf("AppendContents(again): %v", err)
	}

	got, err := repo.GetByID(dbc, src.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	var props domain.SourceProperties
	if err := json.Unmarshal(got.Properties, &props); err != nil {
		t.Fatalf("unmarshal properties: %v", err)
	}
	if len(props.Contents) != 2 || props.Contents[0] != "https://b/a.txt" || props.Contents[1] != "https://b/b.txt" {
		t.Fatalf("contents=%v", props.Contents)
	}

	if err := repo.AppendContents(dbc, 4242, []string{"x"}); err == nil {
		t.Fatalf("expected error for missing source")
	}
}
