package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/adjovi/momo-tracker/internal/ledger"
)

// DownloadBackupWithClient fetches an XML backup object from Cloud Storage
// and decodes it. The caller owns the client lifecycle.
func DownloadBackupWithClient(ctx context.Context, client *storage.Client, bucketName, objectName string) ([]ledger.RawMessage, error) {
	obj := client.Bucket(bucketName).Object(objectName)

	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}

	return ReadBackup(data)
}

// DownloadBackup is the one-shot variant: it creates a client, downloads the
// object and closes the client.
func DownloadBackup(ctx context.Context, bucketName, objectName string) ([]ledger.RawMessage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	return DownloadBackupWithClient(ctx, client, bucketName, objectName)
}

// ParseGCSURI splits a gs://bucket/object URI into its bucket and object
// parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	if trimmed == uri {
		return "", "", fmt.Errorf("not a GCS URI: %s", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed GCS URI: %s", uri)
	}
	return parts[0], parts[1], nil
}
