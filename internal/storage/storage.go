package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrStorageDisabled is returned by the no-op storage when no bucket is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// FileStorage defines the interface for object storage operations. It is
// used to archive rendered invoices and report spreadsheets.
type FileStorage interface {
	// PutObject uploads body under objectKey.
	PutObject(ctx context.Context, objectKey, contentType string, body io.Reader) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading an archived document directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// disabledStorage is used when archiving is switched off.
type disabledStorage struct{}

// NewDisabledStorage returns a FileStorage whose every call fails with
// ErrStorageDisabled.
func NewDisabledStorage() FileStorage { return disabledStorage{} }

func (disabledStorage) PutObject(context.Context, string, string, io.Reader) error {
	return ErrStorageDisabled
}

func (disabledStorage) GeneratePresignedDownloadURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrStorageDisabled
}

func (disabledStorage) DeleteObject(context.Context, string) error {
	return ErrStorageDisabled
}
