package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// ArchiveBucket stores raw source text and hands out public URLs for it.
type ArchiveBucket interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PublicURL(key string) string
}

type BucketConfig struct {
	Name          string
	Mode          string
	EmulatorHost  string
	PublicBaseURL string
	Credentials   string
	UploadTimeout time.Duration
}

type bucketService struct {
	log           *logger.Logger
	client        *storage.Client
	name          string
	mode          StorageMode
	emulatorHost  string
	publicBaseURL string
	uploadTimeout time.Duration
}

// NewArchiveBucket returns nil, nil when no bucket name is configured.
func NewArchiveBucket(ctx context.Context, cfg BucketConfig, log *logger.Logger) (ArchiveBucket, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, nil
	}
	mode, err := ResolveStorageMode(cfg.Mode, cfg.EmulatorHost)
	if err != nil {
		return nil, err
	}
	emulator := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	if mode == StorageModeGCSEmulator {
		if emulator == "" {
			return nil, fmt.Errorf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", StorageModeGCSEmulator)
		}
		if err := validateAbsoluteURL("STORAGE_EMULATOR_HOST", emulator); err != nil {
			return nil, err
		}
	}
	publicBase, err := resolvePublicBaseURL(cfg.PublicBaseURL, mode, emulator, name)
	if err != nil {
		return nil, err
	}

	client, err := newStorageClient(ctx, mode, emulator, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	serviceLog := log.With("service", "ArchiveBucket")
	serviceLog.Info("Object storage initialized", "mode", mode, "bucket", name, "public_base_url", publicBase)
	return &bucketService{
		log:           serviceLog,
		client:        client,
		name:          name,
		mode:          mode,
		emulatorHost:  emulator,
		publicBaseURL: publicBase,
		uploadTimeout: timeout,
	}, nil
}

func newStorageClient(ctx context.Context, mode StorageMode, emulator, creds string) (*storage.Client, error) {
	if mode == StorageModeGCSEmulator {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulator)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := ClientOptions(creds)
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func resolvePublicBaseURL(raw string, mode StorageMode, emulator, bucket string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if err := validateAbsoluteURL("OBJECT_STORAGE_PUBLIC_BASE_URL", raw); err != nil {
			return "", err
		}
		return strings.TrimRight(raw, "/"), nil
	}
	if mode == StorageModeGCSEmulator {
		return emulator, nil
	}
	return "https://storage.googleapis.com", nil
}

func (bs *bucketService) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, bs.uploadTimeout)
	defer cancel()

	w := bs.client.Bucket(bs.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) PublicURL(key string) string {
	return PublicObjectURL(bs.publicBaseURL, bs.name, key)
}

// PublicObjectURL joins base, bucket and key as base/bucket/key.
func PublicObjectURL(base, bucket, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), url.PathEscape(bucket), key)
}
