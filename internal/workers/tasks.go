// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// Task types
const (
	TypeLowStockAlert     = "stock:low_alert"
	TypeOverstockAlert    = "stock:overstock"
	TypeRestockImportXLSX = "restock:import_xlsx"
	TypeRestockImportPDF  = "restock:import_pdf"
	TypePruneReservations = "ledger:prune_reservations"
)

// Queues. Restock and prune tasks go to QueueLedger, which only the API process serves.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
	QueueLedger   = "ledger"
)

// Import formats
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// RestockImportPayload points a worker at an uploaded restock file
type RestockImportPayload struct {
	JobID      string    `json:"job_id"`
	ObjectKey  string    `json:"object_key"`
	Filename   string    `json:"filename"`
	Format     string    `json:"format"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// RestockImportResult is written back to asynq once an import finishes
type RestockImportResult struct {
	JobID          string   `json:"job_id"`
	LinesRead      int      `json:"lines_read"`
	LinesApplied   int      `json:"lines_applied"`
	LinesResumed   int      `json:"lines_resumed,omitempty"`
	UnitsRestocked int64    `json:"units_restocked"`
	Errors         []string `json:"errors,omitempty"`
	ProcessingTime string   `json:"processing_time"`
}

// PrunePayload carries the retention for resolved reservations
type PrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// ImportFormat maps an uploaded filename to an import format
func ImportFormat(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported import file type %q", filepath.Ext(filename))
	}
}

// NewRestockImportTask builds the task for payload's format
func NewRestockImportTask(payload RestockImportPayload) (*asynq.Task, error) {
	var taskType string
	switch payload.Format {
	case FormatXLSX:
		taskType = TypeRestockImportXLSX
	case FormatPDF:
		taskType = TypeRestockImportPDF
	default:
		return nil, fmt.Errorf("unsupported import format %q", payload.Format)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal restock payload: %w", err)
	}

	return asynq.NewTask(taskType, data,
		asynq.Queue(QueueLedger),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// NewStockAlertTask builds the task for a low stock or overstock alert
func NewStockAlertTask(alert domain.StockAlert) (*asynq.Task, error) {
	var (
		taskType string
		queue    string
	)
	switch alert.Kind {
	case domain.AlertLowStock:
		taskType, queue = TypeLowStockAlert, QueueCritical
	case domain.AlertOverstock:
		taskType, queue = TypeOverstockAlert, QueueDefault
	default:
		return nil, fmt.Errorf("unknown alert kind %q", alert.Kind)
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert: %w", err)
	}

	return asynq.NewTask(taskType, data,
		asynq.Queue(queue),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewPruneTask builds the periodic reservation prune task
func NewPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(PrunePayload{Retention: retention})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prune payload: %w", err)
	}
	return asynq.NewTask(TypePruneReservations, data,
		asynq.Queue(QueueLedger),
		asynq.MaxRetry(0),
	), nil
}
