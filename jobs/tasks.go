// Package jobs contains background task definitions and the asynq worker
// wiring around them.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Farhaan96/CollisionOS-sub000/internal/importer"
	"github.com/Farhaan96/CollisionOS-sub000/internal/shared"
)

const (
	// QueueDefault is the queue for maintenance jobs.
	QueueDefault = "default"
	// QueueImports is the queue for estimate file imports.
	QueueImports = "imports"

	// TaskImportBatch processes a batch of estimate files.
	TaskImportBatch = "import:estimate_batch"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// ImportFilePayload is one estimate file inside an import task.
type ImportFilePayload struct {
	Name     string `json:"name"`
	RONumber string `json:"ro_number,omitempty"`
	Content  []byte `json:"content"`
}

// ImportBatchPayload is the task body for TaskImportBatch.
type ImportBatchPayload struct {
	ShopID       int64               `json:"shop_id"`
	PauseOnError bool                `json:"pause_on_error"`
	Files        []ImportFilePayload `json:"files"`
}

// NewImportBatchTask constructs an import task.
func NewImportBatchTask(payload ImportBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportBatch, data), nil
}

// ImportRunner runs an import batch. Implemented by importer.Service.
type ImportRunner interface {
	Run(ctx context.Context, input importer.BatchInput) (importer.BatchResult, error)
}

const importLockTTL = 10 * time.Minute

// NewImportBatchHandler returns the asynq handler for TaskImportBatch.
// A per-shop redis lock serialises imports so two batches never race on
// the same repair orders.
func NewImportBatchHandler(logger *slog.Logger, runner ImportRunner, locker *redis.Client) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ImportBatchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("import task payload malformed", slog.Any("error", err))
			return asynq.SkipRetry
		}

		if locker != nil {
			key := shared.ImportShopLockKey(payload.ShopID)
			ok, err := locker.SetNX(ctx, key, time.Now().Unix(), importLockTTL).Result()
			if err != nil {
				return err
			}
			if !ok {
				return shared.ErrLocked
			}
			defer func() { _ = locker.Del(context.Background(), key).Err() }()
		}

		input := importer.BatchInput{ShopID: payload.ShopID, PauseOnError: payload.PauseOnError}
		for _, file := range payload.Files {
			input.Files = append(input.Files, importer.FileInput{Name: file.Name, RONumber: file.RONumber, Content: file.Content})
		}

		result, err := runner.Run(ctx, input)
		if err != nil {
			if errors.Is(err, importer.ErrValidation) {
				logger.Error("import task rejected", slog.Any("error", err))
				return asynq.SkipRetry
			}
			return err
		}
		logger.Info("import batch processed",
			slog.Int64("batch_id", result.BatchID), slog.String("status", string(result.Status)))
		return nil
	}
}

// NewIdempotencyCleanupTask constructs the cleanup cron task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// NewIdempotencyCleanupHandler prunes idempotency keys older than the
// retention window.
func NewIdempotencyCleanupHandler(logger *slog.Logger, store *shared.IdempotencyStore, retention time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if err := store.Cleanup(ctx, retention); err != nil {
			logger.Error("idempotency cleanup failed", slog.Any("error", err))
			return err
		}
		return nil
	}
}
