package importer

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Farhaan96/CollisionOS-sub000/internal/procurement"
	"github.com/Farhaan96/CollisionOS-sub000/internal/shared"
	"github.com/Farhaan96/CollisionOS-sub000/internal/vendor"
)

type memImpRepo struct {
	mu      sync.Mutex
	batches map[int64]Batch
	files   map[int64]File
	nextID  int64
}

func newMemImpRepo() *memImpRepo {
	return &memImpRepo{batches: make(map[int64]Batch), files: make(map[int64]File)}
}

func (r *memImpRepo) CreateBatch(_ context.Context, batch Batch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	batch.ID = r.nextID
	r.batches[batch.ID] = batch
	return batch.ID, nil
}

func (r *memImpRepo) CreateFile(_ context.Context, file File) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	file.ID = r.nextID
	r.files[file.ID] = file
	return file.ID, nil
}

func (r *memImpRepo) MarkFile(_ context.Context, id int64, status FileStatus, estimateNumber, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return ErrNotFound
	}
	file.Status = status
	file.EstimateNumber = estimateNumber
	file.Error = errMsg
	file.ProcessedAt = time.Now()
	r.files[id] = file
	return nil
}

func (r *memImpRepo) FinishBatch(_ context.Context, id int64, status BatchStatus, processed, failed, skipped int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return ErrNotFound
	}
	batch.Status = status
	batch.ProcessedCount = processed
	batch.FailedCount = failed
	batch.SkippedCount = skipped
	r.batches[id] = batch
	return nil
}

func (r *memImpRepo) GetBatch(_ context.Context, id int64) (Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return Batch{}, ErrNotFound
	}
	return batch, nil
}

func (r *memImpRepo) ListFiles(_ context.Context, batchID int64) ([]File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var files []File
	for id := int64(1); id <= r.nextID; id++ {
		if file, ok := r.files[id]; ok && file.BatchID == batchID {
			files = append(files, file)
		}
	}
	return files, nil
}

type fakeResolver struct {
	byRef map[string]*vendor.Vendor
}

func (f *fakeResolver) Resolve(_ context.Context, _ int64, part vendor.PartInfo) (*vendor.Vendor, error) {
	return f.byRef[part.SupplierRefNum], nil
}

type fakeOrders struct {
	mu     sync.Mutex
	inputs []procurement.CreateOrdersInput
}

func (f *fakeOrders) CreateOrders(_ context.Context, input procurement.CreateOrdersInput) (procurement.CreateOrdersResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	grouping := procurement.GroupByVendor(input.Lines)
	var result procurement.CreateOrdersResult
	for _, group := range grouping.Groups {
		result.Orders = append(result.Orders, procurement.PurchaseOrder{VendorID: group.VendorID})
	}
	result.Unassigned = grouping.Unassigned
	return result, nil
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemIdem() *memIdem {
	return &memIdem{keys: make(map[string]bool)}
}

func (m *memIdem) CheckAndInsert(_ context.Context, key, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memIdem) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

const validEMS = `HD|EST-5501|2025-02-10
VH|2021|Honda|Civic|EX|2HGFC2F59MH512345|12000
CO|Priya Nair|555-0188|9 Birch Rd
PA|71101-TBA-A00|Front bumper cover|1|412.50||A|
PA|GL-2290|Windshield glass|1|289.00||A|SAFELITE
TO|0|701.50|701.50`

func newImportService(t *testing.T, concurrency int) (*Service, *memImpRepo, *fakeOrders, *memIdem) {
	t.Helper()
	repo := newMemImpRepo()
	orders := &fakeOrders{}
	idem := newMemIdem()
	resolver := &fakeResolver{byRef: map[string]*vendor.Vendor{
		"SAFELITE": {ID: 5, ShopID: 7, Name: "Safelite AutoGlass", Type: vendor.TypeAftermarket},
	}}
	svc := NewService(slog.Default(), repo, resolver, orders, idem, concurrency)
	return svc, repo, orders, idem
}

func TestRunImportsValidFile(t *testing.T) {
	svc, repo, orders, _ := newImportService(t, 3)

	result, err := svc.Run(context.Background(), BatchInput{
		ShopID: 7,
		Files:  []FileInput{{Name: "est-5501.ems", RONumber: "RO-9001", Content: []byte(validEMS)}},
	})
	require.NoError(t, err)
	require.Equal(t, BatchStatusCompleted, result.Status)
	require.Len(t, result.Files, 1)
	require.Equal(t, FileStatusCompleted, result.Files[0].Status)
	require.Equal(t, "EST-5501", result.Files[0].EstimateNumber)
	require.Equal(t, 1, result.Files[0].Orders)
	require.Equal(t, 1, result.Files[0].Unassigned)

	require.Len(t, orders.inputs, 1)
	require.Equal(t, "RO-9001", orders.inputs[0].RONumber)
	require.Len(t, orders.inputs[0].Lines, 2)
	require.Equal(t, int64(5), orders.inputs[0].Lines[1].VendorID)

	batch, err := repo.GetBatch(context.Background(), result.BatchID)
	require.NoError(t, err)
	require.Equal(t, 1, batch.ProcessedCount)
}

func TestRunSkipsDuplicateContent(t *testing.T) {
	svc, repo, orders, _ := newImportService(t, 1)

	result, err := svc.Run(context.Background(), BatchInput{
		ShopID: 7,
		Files: []FileInput{
			{Name: "a.ems", RONumber: "RO-1", Content: []byte(validEMS)},
			{Name: "copy-of-a.ems", RONumber: "RO-1", Content: []byte(validEMS)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, BatchStatusCompleted, result.Status)
	require.Equal(t, FileStatusCompleted, result.Files[0].Status)
	require.Equal(t, FileStatusSkipped, result.Files[1].Status)
	require.Len(t, orders.inputs, 1)

	batch, err := repo.GetBatch(context.Background(), result.BatchID)
	require.NoError(t, err)
	require.Equal(t, 1, batch.SkippedCount)
}

func TestRunMarksInvalidFileFailedAndReleasesKey(t *testing.T) {
	svc, repo, _, idem := newImportService(t, 1)
	broken := []byte("LI|part|orphan line|1|10.00")

	result, err := svc.Run(context.Background(), BatchInput{
		ShopID: 7,
		Files: []FileInput{
			{Name: "broken.ems", Content: broken},
			{Name: "good.ems", RONumber: "RO-2", Content: []byte(validEMS)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, BatchStatusCompleted, result.Status)
	require.Equal(t, FileStatusFailed, result.Files[0].Status)
	require.Error(t, result.Files[0].Err)
	require.Equal(t, FileStatusCompleted, result.Files[1].Status)

	// The failed file's key was released, so a corrected upload retries.
	require.False(t, idem.keys[contentHash(broken)])

	files, err := repo.ListFiles(context.Background(), result.BatchID)
	require.NoError(t, err)
	require.NotEmpty(t, files[0].Error)
}

func TestRunPauseOnErrorStopsBatch(t *testing.T) {
	svc, repo, orders, _ := newImportService(t, 1)

	result, err := svc.Run(context.Background(), BatchInput{
		ShopID:       7,
		PauseOnError: true,
		Files: []FileInput{
			{Name: "broken.ems", Content: []byte("LI|part|orphan|1|10.00")},
			{Name: "never-reached.ems", RONumber: "RO-3", Content: []byte(validEMS)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, BatchStatusFailed, result.Status)
	require.Empty(t, orders.inputs)

	files, err := repo.ListFiles(context.Background(), result.BatchID)
	require.NoError(t, err)
	require.Equal(t, FileStatusPending, files[1].Status)
}

func TestRunRejectsEmptyBatch(t *testing.T) {
	svc, _, _, _ := newImportService(t, 1)
	_, err := svc.Run(context.Background(), BatchInput{ShopID: 7})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Run(context.Background(), BatchInput{Files: []FileInput{{Name: "x", Content: []byte("<a/>")}}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRunAllFilesFailedMarksBatchFailed(t *testing.T) {
	svc, _, _, _ := newImportService(t, 2)

	result, err := svc.Run(context.Background(), BatchInput{
		ShopID: 7,
		Files: []FileInput{
			{Name: "b1.ems", Content: []byte("LI|part|a|1|1")},
			{Name: "b2.ems", Content: []byte("LI|part|b|2|1")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, BatchStatusFailed, result.Status)
}
