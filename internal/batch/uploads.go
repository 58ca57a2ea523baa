package batch

import (
	"context"

	"github.com/adewale-k/compliance-docs/internal/entity"
	"github.com/adewale-k/compliance-docs/internal/upload"
)

// Uploader is the single-item operation the upload batch fans out over.
// *upload.Orchestrator satisfies it.
type Uploader interface {
	Submit(ctx context.Context, req upload.SubmitRequest) (entity.UploadItem, error)
}

// RunBatchUpload drives every file through the upload protocol
// independently and aggregates outcomes. Succeeded values carry the
// terminal UploadItem so callers can read server document ids.
func (c *Coordinator) RunBatchUpload(ctx context.Context, uploader Uploader, files []upload.SubmitRequest) entity.BatchResult {
	return c.Run(ctx, len(files), func(ctx context.Context, idx int) (string, any, error) {
		item, err := uploader.Submit(ctx, files[idx])
		return item.ID, item, err
	})
}
