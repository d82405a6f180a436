package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate"
	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate/parser"
	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate/validate"
	"github.com/Farhaan96/CollisionOS-sub000/internal/procurement"
	"github.com/Farhaan96/CollisionOS-sub000/internal/shared"
	"github.com/Farhaan96/CollisionOS-sub000/internal/vendor"
)

// RepositoryPort is the batch bookkeeping surface.
type RepositoryPort interface {
	CreateBatch(ctx context.Context, batch Batch) (int64, error)
	CreateFile(ctx context.Context, file File) (int64, error)
	MarkFile(ctx context.Context, id int64, status FileStatus, estimateNumber, errMsg string) error
	FinishBatch(ctx context.Context, id int64, status BatchStatus, processed, failed, skipped int) error
	GetBatch(ctx context.Context, id int64) (Batch, error)
	ListFiles(ctx context.Context, batchID int64) ([]File, error)
}

// ResolverPort assigns vendors to parsed part lines.
type ResolverPort interface {
	Resolve(ctx context.Context, shopID int64, part vendor.PartInfo) (*vendor.Vendor, error)
}

// OrdersPort hands resolved lines to procurement.
type OrdersPort interface {
	CreateOrders(ctx context.Context, input procurement.CreateOrdersInput) (procurement.CreateOrdersResult, error)
}

// IdempotencyPort deduplicates file content across batches.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "importer"

// Service runs import batches.
type Service struct {
	logger      *slog.Logger
	repo        RepositoryPort
	resolver    ResolverPort
	orders      OrdersPort
	idempotency IdempotencyPort
	concurrency int
}

// NewService constructs the import service. concurrency bounds how many
// files of one batch are processed at once.
func NewService(logger *slog.Logger, repo RepositoryPort, resolver ResolverPort, orders OrdersPort, idem IdempotencyPort, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{logger: logger, repo: repo, resolver: resolver, orders: orders, idempotency: idem, concurrency: concurrency}
}

// FileInput is one estimate file queued for import.
type FileInput struct {
	Name     string
	RONumber string
	Content  []byte
}

// BatchInput describes an import run. With PauseOnError set, the first
// failing file stops the rest of the batch.
type BatchInput struct {
	ShopID       int64
	PauseOnError bool
	Files        []FileInput
}

// FileResult is the outcome for one file.
type FileResult struct {
	Name           string
	Status         FileStatus
	EstimateNumber string
	Orders         int
	Unassigned     int
	Err            error
}

// BatchResult reports the finished batch.
type BatchResult struct {
	BatchID int64
	Status  BatchStatus
	Files   []FileResult
}

// Run processes a batch of estimate files with bounded concurrency.
func (s *Service) Run(ctx context.Context, input BatchInput) (BatchResult, error) {
	if input.ShopID <= 0 || len(input.Files) == 0 {
		return BatchResult{}, fmt.Errorf("%w: shop and at least one file required", ErrValidation)
	}

	batchID, err := s.repo.CreateBatch(ctx, Batch{
		ShopID:       input.ShopID,
		Status:       BatchStatusProcessing,
		FileCount:    len(input.Files),
		PauseOnError: input.PauseOnError,
	})
	if err != nil {
		return BatchResult{}, err
	}

	fileIDs := make([]int64, len(input.Files))
	for i, file := range input.Files {
		fileIDs[i], err = s.repo.CreateFile(ctx, File{
			BatchID: batchID,
			Name:    file.Name,
			Hash:    contentHash(file.Content),
			Status:  FileStatusPending,
		})
		if err != nil {
			return BatchResult{}, err
		}
	}

	var mu sync.Mutex
	results := make([]FileResult, len(input.Files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i := range input.Files {
		i := i
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			result := s.processFile(groupCtx, input.ShopID, fileIDs[i], input.Files[i])
			mu.Lock()
			results[i] = result
			mu.Unlock()
			if result.Status == FileStatusFailed && input.PauseOnError {
				return fmt.Errorf("%w: %s", ErrBatchPaused, input.Files[i].Name)
			}
			return nil
		})
	}
	paused := group.Wait()

	var processed, failed, skipped int
	for _, result := range results {
		switch result.Status {
		case FileStatusCompleted:
			processed++
		case FileStatusFailed:
			failed++
		case FileStatusSkipped:
			skipped++
		}
	}

	status := BatchStatusCompleted
	if paused != nil {
		status = BatchStatusFailed
	} else if failed == len(input.Files) {
		status = BatchStatusFailed
	}
	if err := s.repo.FinishBatch(ctx, batchID, status, processed, failed, skipped); err != nil {
		return BatchResult{}, err
	}

	s.logger.Info("import batch finished",
		slog.Int64("batch_id", batchID), slog.String("status", string(status)),
		slog.Int("processed", processed), slog.Int("failed", failed), slog.Int("skipped", skipped))
	return BatchResult{BatchID: batchID, Status: status, Files: results}, nil
}

// processFile runs the full pipeline for one file: duplicate check,
// parse, validate, resolve vendors, create orders.
func (s *Service) processFile(ctx context.Context, shopID, fileID int64, file FileInput) FileResult {
	result := FileResult{Name: file.Name}
	hash := contentHash(file.Content)

	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, hash, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				result.Status = FileStatusSkipped
				s.markFile(ctx, fileID, result, "duplicate of a previously imported file")
				return result
			}
			return s.fail(ctx, fileID, result, hash, fmt.Errorf("idempotency check: %w", err))
		}
	}

	parsed, err := parser.Parse(file.Content)
	if err != nil {
		return s.fail(ctx, fileID, result, hash, err)
	}
	doc, report := validate.Run(parsed)
	for _, warning := range report.Warnings {
		s.logger.Warn("estimate warning", slog.String("file", file.Name), slog.String("type", warning.Type), slog.String("detail", warning.Message))
	}
	if !report.IsValid {
		return s.fail(ctx, fileID, result, hash, fmt.Errorf("estimate invalid: %s", report.Summary))
	}
	result.EstimateNumber = doc.EstimateNumber

	lines, err := s.buildLines(ctx, shopID, file, doc)
	if err != nil {
		return s.fail(ctx, fileID, result, hash, err)
	}
	if len(lines) == 0 {
		result.Status = FileStatusCompleted
		s.markFile(ctx, fileID, result, "")
		return result
	}

	created, err := s.orders.CreateOrders(ctx, procurement.CreateOrdersInput{
		ShopID:   shopID,
		RONumber: roNumber(file, doc),
		Lines:    lines,
	})
	if err != nil {
		return s.fail(ctx, fileID, result, hash, err)
	}

	result.Status = FileStatusCompleted
	result.Orders = len(created.Orders)
	result.Unassigned = len(created.Unassigned)
	s.markFile(ctx, fileID, result, "")
	return result
}

func (s *Service) buildLines(ctx context.Context, shopID int64, file FileInput, doc *estimate.Document) ([]procurement.PartLine, error) {
	var lines []procurement.PartLine
	for i, src := range doc.Lines {
		if src.Type != estimate.LinePart || src.Part == nil {
			continue
		}
		qty := src.Quantity
		if qty == 0 {
			qty = 1
		}
		line := procurement.PartLine{
			EstimateLineRef: fmt.Sprintf("%s:%d", doc.EstimateNumber, i+1),
			PartNumber:      src.Part.PartNumber,
			OEMNumber:       src.Part.OEMNumber,
			Description:     src.Description,
			Quantity:        qty,
			UnitPrice:       src.UnitPrice,
			Status:          procurement.LineStatusNeeded,
		}
		resolved, err := s.resolver.Resolve(ctx, shopID, vendor.PartInfo{
			SupplierRefNum: src.Part.SupplierRefNum,
			SourceCode:     src.Part.SourceCode,
			PartType:       src.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve vendor for %s: %w", src.Part.PartNumber, err)
		}
		if resolved != nil {
			line.VendorID = resolved.ID
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// fail marks the file failed and releases its idempotency key so a fixed
// version of the file can be retried.
func (s *Service) fail(ctx context.Context, fileID int64, result FileResult, hash string, err error) FileResult {
	result.Status = FileStatusFailed
	result.Err = err
	if s.idempotency != nil {
		if delErr := s.idempotency.Delete(ctx, hash); delErr != nil {
			s.logger.Warn("idempotency key release failed", slog.Any("error", delErr))
		}
	}
	s.markFile(ctx, fileID, result, err.Error())
	return result
}

func (s *Service) markFile(ctx context.Context, fileID int64, result FileResult, errMsg string) {
	if err := s.repo.MarkFile(ctx, fileID, result.Status, result.EstimateNumber, errMsg); err != nil {
		s.logger.Warn("mark import file failed", slog.Int64("file_id", fileID), slog.Any("error", err))
	}
}

func roNumber(file FileInput, doc *estimate.Document) string {
	if file.RONumber != "" {
		return file.RONumber
	}
	return doc.EstimateNumber
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
