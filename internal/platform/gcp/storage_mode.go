package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

// ResolveStorageMode picks the mode from an explicit value, falling back to
// the emulator when only an emulator host is configured.
func ResolveStorageMode(raw, emulatorHost string) (StorageMode, error) {
	mode := StorageMode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		if strings.TrimSpace(emulatorHost) != "" {
			return StorageModeGCSEmulator, nil
		}
		return StorageModeGCS, nil
	case StorageModeGCS, StorageModeGCSEmulator:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", raw, StorageModeGCS, StorageModeGCSEmulator)
	}
}

func validateAbsoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return fmt.Errorf("invalid %s=%q; expected absolute URL like http://localhost:4443", name, raw)
	}
	return nil
}
