package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// multipartThreshold is the size above which uploads switch to the multipart
// manager. 5 MiB is also the S3 minimum part size.
const multipartThreshold int64 = 5 * 1024 * 1024

// Archiver uploads journal file snapshots under a date-partitioned prefix.
// Archival is best effort: the journal on local disk stays authoritative.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewArchiver creates an Archiver writing under prefix in the client's bucket.
func NewArchiver(c *Client, prefix string, logger *slog.Logger) *Archiver {
	return &Archiver{
		client: c.S3(),
		bucket: c.Bucket(),
		prefix: prefix,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveFile uploads the file at path as a timestamped object, e.g.
// "<prefix>/2026/01/17/trades-180000.jsonl".
func (a *Archiver) ArchiveFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("s3blob: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("s3blob: stat %s: %w", path, err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/trades-%s.jsonl",
		a.prefix, now.Format("2006/01/02"), now.Format("150405"))

	if info.Size() >= multipartThreshold {
		uploader := manager.NewUploader(a.client)
		_, err = uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
	} else {
		err = a.put(ctx, key, f)
	}
	if err != nil {
		return fmt.Errorf("s3blob: archive %s: %w", path, err)
	}

	a.logger.Info("journal segment archived",
		slog.String("key", key),
		slog.Int64("bytes", info.Size()))
	return nil
}

// Put uploads an in-memory payload under key, relative to the prefix.
func (a *Archiver) Put(ctx context.Context, key string, data []byte) error {
	if err := a.put(ctx, a.prefix+"/"+key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("s3blob: put %s: %w", key, err)
	}
	return nil
}

func (a *Archiver) put(ctx context.Context, key string, body io.Reader) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/x-ndjson"),
	})
	return err
}

// Run archives the journal on the given interval until ctx is cancelled.
// Failures are logged and retried next tick.
func (a *Archiver) Run(ctx context.Context, path string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.ArchiveFile(ctx, path); err != nil {
				a.logger.Warn("archive failed", slog.String("error", err.Error()))
			}
		}
	}
}
