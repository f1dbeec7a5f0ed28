package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/data/repos/testutil"
	"github.com/yungbote/conscious-backend/internal/domain"
)

func newTestArchiver(t *testing.T, b *fakeBucket) Archiver {
	t.Helper()
	var a Archiver
	if b == nil {
		a = NewArchiver(testutil.Logger(t), nil, 2)
	} else {
		a = NewArchiver(testutil.Logger(t), b, 2)
	}
	a.(*archiver).now = func() time.Time { return time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC) }
	return a
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("x", -2*3600))
	key := ArchiveKey("hello", at)
	if !strings.HasPrefix(key, "2025/03/10/") || !strings.HasSuffix(key, ".txt") {
		t.Fatalf("key=%q", key)
	}
	hash := strings.TrimSuffix(strings.TrimPrefix(key, "2025/03/10/"), ".txt")
	if len(hash) != 32 {
		t.Fatalf("hash %q has length %d want 32", hash, len(hash))
	}
	if ArchiveKey("hello", at) != key || ArchiveKey("hello!", at) == key {
		t.Fatalf("key not a stable content hash")
	}
}

func TestArchive(t *testing.T) {
	b := &fakeBucket{objects: map[string]string{}, failFor: "broken"}
	a := newTestArchiver(t, b)
	got := a.Archive(context.Background(), []string{"one", "", "broken", "two"})
	if len(got) != 4 {
		t.Fatalf("len=%d want 4", len(got))
	}
	if got[1] != nil || got[2] != nil {
		t.Fatalf("empty and failed uploads must be nil: %v %v", got[1], got[2])
	}
	want := "https://archive.test/bucket/" + ArchiveKey("one", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	if got[0] == nil || *got[0] != want {
		t.Fatalf("url=%v want %s", got[0], want)
	}
	if got[3] == nil || len(b.objects) != 2 {
		t.Fatalf("objects=%v", b.objects)
	}
	if urls := URLs(got); len(urls) != 2 {
		t.Fatalf("URLs=%v", urls)
	}

	none := newTestArchiver(t, nil).Archive(context.Background(), []string{"one"})
	if len(none) != 1 || none[0] != nil {
		t.Fatalf("nil bucket result=%v", none)
	}
}

func TestExtract(t *testing.T) {
	h := newHarness(t)
	b := &fakeBucket{objects: map[string]string{}}
	comp := &fakeCompleter{thoughts: []string{"alpha", "beta"}}
	svc := NewExtractionService(testutil.Logger(t), catalog.Default(), comp, newTestArchiver(t, b), h.ingest)

	got, err := svc.Extract(h.ctx, ExtractInput{
		Text:        `  Caf\u00e9 notes  `,
		SourceType:  "book",
		Identifiers: book("77"),
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 || comp.got != "Café notes" {
		t.Fatalf("thoughts=%v completer got %q", got, comp.got)
	}
	if n := h.count(&domain.Thought{}); n != 2 {
		t.Fatalf("thought rows=%d want 2", n)
	}
	src, err := h.sources.GetByNaturalKey(dbcOf(h), "book", "isbn=77")
	if err != nil || src == nil {
		t.Fatalf("source=%v err=%v", src, err)
	}
	props := decodeProps(t, src)
	if len(props.Contents) != 1 || !strings.HasPrefix(props.Contents[0], "https://archive.test/bucket/2025/03/09/") {
		t.Fatalf("contents=%v", props.Contents)
	}
	if len(b.objects) != 1 {
		t.Fatalf("archived objects=%d want 1", len(b.objects))
	}
}

func TestExtractErrors(t *testing.T) {
	h := newHarness(t)
	comp := &fakeCompleter{thoughts: []string{"alpha"}}
	svc := NewExtractionService(testutil.Logger(t), catalog.Default(), comp, newTestArchiver(t, nil), h.ingest)

	_, err := svc.Extract(h.ctx, ExtractInput{Text: `  `, SourceType: ""})
	requireCode(t, err, domain.CodeValidation)
	if msg := domain.MessageOf(err); !strings.Contains(msg, "text:") || !strings.Contains(msg, "type:") || !strings.Contains(msg, "identifiers:") {
		t.Fatalf("message=%q", msg)
	}
	if comp.got != "" {
		t.Fatalf("completer called on invalid input")
	}

	_, err = svc.Extract(h.ctx, ExtractInput{Text: "x", SourceType: "book", Identifiers: map[string]string{"isbn": ""}})
	requireCode(t, err, domain.CodeInvalidIdentity)

	comp.err = errors.New("model unavailable")
	_, err = svc.Extract(h.ctx, ExtractInput{Text: "x", SourceType: "book", Identifiers: book("1")})
	requireCode(t, err, domain.CodeUpstream)
	if n := h.count(&domain.Source{}); n != 0 {
		t.Fatalf("source rows=%d want 0", n)
	}
}

const kindleFile = `<html><body>
<div class="bookTitle">Deep Work</div>
<div class="authors">Cal Newport</div>
<div class="noteText">alpha</div>
<div class="noteText">gamma</div>
</body></html>`

func TestAddData(t *testing.T) {
	h := newHarness(t)
	b := &fakeBucket{objects: map[string]string{}}
	svc := NewAddDataService(testutil.Logger(t), catalog.Default(), newTestArchiver(t, b), h.ingest)

	res, err := svc.AddData(h.ctx, AddDataInput{Task: "Note", SourceType: "book", Identifiers: book("1"), FileContent: []byte(kindleFile)})
	if err != nil {
		t.Fatalf("AddData file: %v", err)
	}
	if len(res.ThoughtIDs) != 2 || len(b.objects) != 1 {
		t.Fatalf("result=%+v objects=%d", res, len(b.objects))
	}

	res, err = svc.AddData(h.ctx, AddDataInput{Task: "note", SourceType: "book", Identifiers: book("1"), Texts: []string{" beta ", "", "alpha"}})
	if err != nil {
		t.Fatalf("AddData texts: %v", err)
	}
	if len(res.ThoughtIDs) != 2 {
		t.Fatalf("result=%+v", res)
	}
	if n := h.count(&domain.Thought{}); n != 3 {
		t.Fatalf("thought rows=%d want 3", n)
	}

	cases := []struct {
		name string
		in   AddDataInput
	}{
		{"empty", AddDataInput{Task: "note", SourceType: "book", Identifiers: book("1")}},
		{"unknown task", AddDataInput{Task: "quote", SourceType: "book", Identifiers: book("1"), Texts: []string{"alpha"}}},
		{"type not allowed", AddDataInput{Task: "note", SourceType: "website", Identifiers: map[string]string{"url": "u"}, Texts: []string{"alpha"}}},
		{"no notes", AddDataInput{Task: "note", SourceType: "book", Identifiers: book("1"), FileContent: []byte("<html></html>")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddData(h.ctx, tc.in)
			requireCode(t, err, domain.CodeValidation)
		})
	}
}
