// Package storage moves uploaded spreadsheets, model bundles and
// generated reports between the local filesystem and GCS.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// Fetch reads the bytes behind either a gs:// URI or a local path.
func Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "gs://") {
		return FetchFromGCS(ctx, location)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("fetch local file %q: %w", location, err)
	}
	return data, nil
}

// FetchFromGCS downloads the file bytes from the given GCS URI.
// It assumes Application Default Credentials are configured.
func FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := splitGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading bytes: %w", err)
	}

	return data, nil
}

// UploadFile uploads a local file to a GCS bucket under the given
// object name.
func UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()
	return upload(ctx, bucketName, objectName, f)
}

// UploadBytes uploads an in-memory payload, typically a generated
// report, to a GCS bucket under the given object name.
func UploadBytes(ctx context.Context, bucketName, objectName string, data []byte) error {
	return upload(ctx, bucketName, objectName, bytes.NewReader(data))
}

// UploadToURI uploads an in-memory payload to a full gs:// URI.
func UploadToURI(ctx context.Context, gcsURI string, data []byte) error {
	bucketName, objectPath, err := splitGCSURI(gcsURI)
	if err != nil {
		return err
	}
	return upload(ctx, bucketName, objectPath, bytes.NewReader(data))
}

func upload(ctx context.Context, bucketName, objectName string, r io.Reader) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

func splitGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilename extracts the filename from a gs:// URI or local
// path, e.g. "gs://bucket/folder/file.xlsx" becomes "file.xlsx".
func ExtractFilename(location string) string {
	if strings.HasPrefix(location, "gs://") {
		trimmed := strings.TrimPrefix(location, "gs://")
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) < 2 {
			return trimmed
		}
		return path.Base(parts[1])
	}
	return path.Base(location)
}
