// Package importer ingests estimate files and drives them through
// parsing, validation, vendor resolution and purchase order creation.
package importer

import (
	"errors"
	"time"
)

// Batch lifecycle statuses.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// Per-file statuses within a batch.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
	FileStatusSkipped    FileStatus = "skipped"
)

// Batch tracks one import run.
type Batch struct {
	ID             int64       `json:"id"`
	ShopID         int64       `json:"shop_id"`
	Status         BatchStatus `json:"status"`
	FileCount      int         `json:"file_count"`
	ProcessedCount int         `json:"processed_count"`
	FailedCount    int         `json:"failed_count"`
	SkippedCount   int         `json:"skipped_count"`
	PauseOnError   bool        `json:"pause_on_error"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// File tracks one estimate file inside a batch. Hash is the content
// digest used for duplicate detection across batches.
type File struct {
	ID             int64      `json:"id"`
	BatchID        int64      `json:"batch_id"`
	Name           string     `json:"name"`
	Hash           string     `json:"hash"`
	Status         FileStatus `json:"status"`
	EstimateNumber string     `json:"estimate_number,omitempty"`
	Error          string     `json:"error,omitempty"`
	ProcessedAt    time.Time  `json:"processed_at"`
}

var (
	// ErrNotFound indicates a missing batch or file.
	ErrNotFound = errors.New("importer: not found")
	// ErrValidation indicates invalid import input.
	ErrValidation = errors.New("importer: invalid input")
	// ErrBatchPaused indicates processing stopped after a failure.
	ErrBatchPaused = errors.New("importer: batch paused on error")
)
