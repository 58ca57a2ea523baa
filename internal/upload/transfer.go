package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

// ProgressFunc receives transfer progress as an integer percent.
type ProgressFunc func(pct int)

// TransferChannel streams one file's bytes against an upload handle.
// Implementations must honor ctx cancellation mid-stream.
type TransferChannel interface {
	Transfer(ctx context.Context, handle entity.UploadHandle, r io.Reader, size int64, contentType string, progress ProgressFunc) error
}

// MinioChannel transfers bytes to an S3-compatible object store.
type MinioChannel struct {
	client *minio.Client
	bucket string
}

func NewMinioChannel(cfg *common.StoreConfig) (*MinioChannel, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &MinioChannel{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *MinioChannel) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (c *MinioChannel) Transfer(ctx context.Context, handle entity.UploadHandle, r io.Reader, size int64, contentType string, progress ProgressFunc) error {
	pr := newProgressReader(r, size, progress)
	_, err := c.client.PutObject(ctx, c.bucket, handle.ObjectKey, pr, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", handle.ObjectKey, err)
	}
	return nil
}

// progressReader counts bytes read through it and reports whole-percent
// increases at most once each.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	lastPct  int
	progress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, lastPct: -1, progress: progress}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		if p.total > 0 && p.progress != nil {
			pct := int(p.read * 100 / p.total)
			if pct > 100 {
				pct = 100
			}
			if pct > p.lastPct {
				p.lastPct = pct
				p.progress(pct)
			}
		}
	}
	return n, err
}
