// Package archive keeps a copy of every received receipt photo in a GCS
// bucket, so a record can always be traced back to its source image.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const uploadTimeout = 2 * time.Minute

// Receipts uploads receipt images to a bucket. Assumes Application Default
// Credentials are configured.
type Receipts struct {
	client *storage.Client
	bucket string
	log    zerolog.Logger
	now    func() time.Time
}

// New creates a Receipts archive over the given bucket.
func New(ctx context.Context, bucket string, log zerolog.Logger) (*Receipts, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("New: create storage client: %w", err)
	}
	return &Receipts{client: client, bucket: bucket, log: log, now: time.Now}, nil
}

// Close releases the underlying storage client.
func (a *Receipts) Close() error {
	return a.client.Close()
}

// Store uploads one image and returns its gs:// URI. Object names carry the
// chat id and receive date so the bucket stays browsable.
func (a *Receipts) Store(ctx context.Context, chatID string, image []byte, mimeType string) (string, error) {
	objectName := fmt.Sprintf("receipts/%s/%s-%s%s",
		chatID,
		a.now().Format("2006-01-02"),
		uuid.NewString(),
		extensionFor(mimeType),
	)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := io.Copy(w, bytes.NewReader(image)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Store: copy image to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Store: close GCS writer: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, objectName)
	a.log.Info().Str("uri", uri).Int("bytes", len(image)).Msg("Receipt uploaded")
	return uri, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
