package gcp

import (
	"context"
	"testing"

	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

func TestResolveStorageMode(t *testing.T) {
	cases := []struct {
		raw, emulator string
		want          StorageMode
		wantErr       bool
	}{
		{"", "", StorageModeGCS, false},
		{"", "http://fake-gcs:4443", StorageModeGCSEmulator, false},
		{"GCS", "http://fake-gcs:4443", StorageModeGCS, false},
		{"gcs_emulator", "", StorageModeGCSEmulator, false},
		{"s3", "", "", true},
	}
	for _, tc := range cases {
		got, err := ResolveStorageMode(tc.raw, tc.emulator)
		if tc.wantErr != (err != nil) {
			t.Fatalf("ResolveStorageMode(%q,%q) err=%v", tc.raw, tc.emulator, err)
		}
		if got != tc.want {
			t.Fatalf("ResolveStorageMode(%q,%q)=%q want %q", tc.raw, tc.emulator, got, tc.want)
		}
	}
}

func TestResolvePublicBaseURL(t *testing.T) {
	got, err := resolvePublicBaseURL("http://cdn.local/", StorageModeGCS, "", "b")
	if err != nil || got != "http://cdn.local" {
		t.Fatalf("got=%q err=%v", got, err)
	}
	got, err = resolvePublicBaseURL("", StorageModeGCSEmulator, "http://fake-gcs:4443", "b")
	if err != nil || got != "http://fake-gcs:4443" {
		t.Fatalf("got=%q err=%v", got, err)
	}
	if _, err := resolvePublicBaseURL("not a url", StorageModeGCS, "", "b"); err == nil {
		t.Fatalf("expected invalid url error")
	}
}

func TestPublicObjectURL(t *testing.T) {
	got := PublicObjectURL("https://storage.googleapis.com/", "archive", "/2024/01/02/abc.txt")
	want := "https://storage.googleapis.com/archive/2024/01/02/abc.txt"
	if got != want {
		t.Fatalf("got=%q want %q", got, want)
	}
}

func TestNewArchiveBucketDisabledWithoutName(t *testing.T) {
	b, err := NewArchiveBucket(context.Background(), BucketConfig{}, logger.Nop())
	if err != nil || b != nil {
		t.Fatalf("b=%v err=%v", b, err)
	}
}

func TestNewArchiveBucketEmulatorRequiresHost(t *testing.T) {
	_, err := NewArchiveBucket(context.Background(), BucketConfig{Name: "b", Mode: "gcs_emulator"}, logger.Nop())
	if err == nil {
		t.Fatalf("expected missing emulator host error")
	}
}
