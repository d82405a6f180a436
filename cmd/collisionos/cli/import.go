// Package cli holds operational helpers for the collisionos binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/Farhaan96/CollisionOS-sub000/jobs"
)

// ImportCLI enqueues estimate file batches for the worker to process.
type ImportCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewImportCLI initialises the helper using the provided Redis address.
func NewImportCLI(redisAddr string) (*ImportCLI, error) {
	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	if err != nil {
		return nil, err
	}
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	return &ImportCLI{client: client, inspector: inspector}, nil
}

// Close releases underlying resources.
func (c *ImportCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// LoadFiles reads estimate files from disk into task payloads.
func LoadFiles(paths []string) ([]jobs.ImportFilePayload, error) {
	if len(paths) == 0 {
		return nil, errors.New("import cli: at least one file required")
	}
	files := make([]jobs.ImportFilePayload, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("import cli: read %s: %w", path, err)
		}
		files = append(files, jobs.ImportFilePayload{
			Name:    filepath.Base(path),
			Content: content,
		})
	}
	return files, nil
}

// EnqueueBatch submits the files as one import batch.
func (c *ImportCLI) EnqueueBatch(ctx context.Context, shopID int64, pauseOnError bool, files []jobs.ImportFilePayload) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("import cli: client not configured")
	}
	if shopID <= 0 {
		return nil, errors.New("import cli: shop id required")
	}
	return c.client.EnqueueImportBatch(ctx, jobs.ImportBatchPayload{
		ShopID:       shopID,
		PauseOnError: pauseOnError,
		Files:        files,
	})
}

// QueueStats summarises the imports queue.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the imports queue metrics.
func (c *ImportCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("import cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueImports)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueImports}
	if info != nil {
		stats.Pending = int(info.Pending)
		stats.Active = int(info.Active)
		stats.Scheduled = int(info.Scheduled)
		stats.Retry = int(info.Retry)
	}
	return stats, nil
}
