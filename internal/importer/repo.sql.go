package importer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed batch bookkeeping.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBatch inserts a batch header.
func (r *Repository) CreateBatch(ctx context.Context, batch Batch) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO import_batches (shop_id, status, file_count, pause_on_error, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING id`,
		batch.ShopID, batch.Status, batch.FileCount, batch.PauseOnError).Scan(&id)
	return id, err
}

// CreateFile inserts a file row in pending state.
func (r *Repository) CreateFile(ctx context.Context, file File) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO import_files (batch_id, name, hash, status) VALUES ($1,$2,$3,$4) RETURNING id`,
		file.BatchID, file.Name, file.Hash, file.Status).Scan(&id)
	return id, err
}

// MarkFile records the outcome of one file.
func (r *Repository) MarkFile(ctx context.Context, id int64, status FileStatus, estimateNumber, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE import_files SET status=$1, estimate_number=$2, error=$3, processed_at=NOW() WHERE id=$4`,
		status, estimateNumber, errMsg, id)
	return err
}

// FinishBatch writes the final batch status and counters.
func (r *Repository) FinishBatch(ctx context.Context, id int64, status BatchStatus, processed, failed, skipped int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE import_batches SET status=$1, processed_count=$2, failed_count=$3, skipped_count=$4, updated_at=NOW() WHERE id=$5`,
		status, processed, failed, skipped, id)
	return err
}

// GetBatch loads a batch header.
func (r *Repository) GetBatch(ctx context.Context, id int64) (Batch, error) {
	var batch Batch
	err := r.pool.QueryRow(ctx,
		`SELECT id, shop_id, status, file_count, processed_count, failed_count, skipped_count, pause_on_error, created_at, updated_at
		 FROM import_batches WHERE id=$1`, id).
		Scan(&batch.ID, &batch.ShopID, &batch.Status, &batch.FileCount, &batch.ProcessedCount, &batch.FailedCount, &batch.SkippedCount, &batch.PauseOnError, &batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, err
	}
	return batch, nil
}

// ListFiles returns the files of a batch in insertion order.
func (r *Repository) ListFiles(ctx context.Context, batchID int64) ([]File, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, batch_id, name, hash, status, COALESCE(estimate_number,''), COALESCE(error,''), COALESCE(processed_at, 'epoch'::timestamptz)
		 FROM import_files WHERE batch_id=$1 ORDER BY id`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []File
	for rows.Next() {
		var file File
		if err := rows.Scan(&file.ID, &file.BatchID, &file.Name, &file.Hash, &file.Status, &file.EstimateNumber, &file.Error, &file.ProcessedAt); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}
