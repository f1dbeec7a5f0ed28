package services

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/conscious-backend/internal/platform/gcp"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

const archiveContentType = "text/plain; charset=utf-8"

// Archiver stores raw texts and returns one public URL per input. A nil
// entry means the text was empty or its upload failed.
type Archiver interface {
	Archive(ctx context.Context, texts []string) []*string
}

type archiver struct {
	log         *logger.Logger
	bucket      gcp.ArchiveBucket
	concurrency int
	now         func() time.Time
}

// NewArchiver returns an archiver. A nil bucket yields nil URLs for every text.
func NewArchiver(log *logger.Logger, bucket gcp.ArchiveBucket, concurrency int) Archiver {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &archiver{
		log:         log.With("service", "Archiver"),
		bucket:      bucket,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// ArchiveKey is YYYY/MM/DD/<blake2b-128 hex>.txt.
func ArchiveKey(text string, at time.Time) string {
	h, _ := blake2b.New(16, nil)
	_, _ = h.Write([]byte(text))
	return at.UTC().Format("2006/01/02") + "/" + hex.EncodeToString(h.Sum(nil)) + ".txt"
}

func (a *archiver) Archive(ctx context.Context, texts []string) []*string {
	out := make([]*string, len(texts))
	if a.bucket == nil || len(texts) == 0 {
		return out
	}
	now := a.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, text := range texts {
		if text == "" {
			continue
		}
		i, text := i, text
		g.Go(func() error {
			key := ArchiveKey(text, now)
			if err := a.bucket.Upload(gctx, key, archiveContentType, strings.NewReader(text)); err != nil {
				a.log.For(ctx).Warn("Archive upload failed", "index", i, "key", key, "error", err)
				return nil
			}
			u := a.bucket.PublicURL(key)
			out[i] = &u
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// URLs drops nil entries.
func URLs(in []*string) []string {
	var out []string
	for _, u := range in {
		if u != nil && *u != "" {
			out = append(out, *u)
		}
	}
	return out
}
