// internal/handlers/restock_import.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/workers"
)

// ImportHandler accepts restock files and queues them for the ledger worker
type ImportHandler struct {
	responder
	storage     ports.ObjectStorage
	queue       ports.TaskEnqueuer
	maxFileSize int64
}

// NewImportHandler creates a new import handler
func NewImportHandler(store ports.ObjectStorage, queue ports.TaskEnqueuer, maxFileSize int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		responder:   responder{logger: logger.With(slog.String("handler", "import"))},
		storage:     store,
		queue:       queue,
		maxFileSize: maxFileSize,
	}
}

// ImportResponse acknowledges a queued import
type ImportResponse struct {
	JobID     string `json:"job_id"`
	TaskID    string `json:"task_id"`
	ObjectKey string `json:"object_key"`
	Format    string `json:"format"`
	Status    string `json:"status"`
}

// ImportRestock handles POST /api/v1/restock/import
func (h *ImportHandler) ImportRestock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	format, err := workers.ImportFormat(header.Filename)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Only .xlsx and .pdf files are allowed")
		return
	}

	now := time.Now().UTC()
	key := storage.ImportKey(header.Filename, now)
	if _, err := h.storage.Upload(ctx, key, file, header.Header.Get("Content-Type")); err != nil {
		h.logger.ErrorContext(ctx, "failed to store import file",
			slog.String("object_key", key),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	payload := workers.RestockImportPayload{
		JobID:      uuid.New().String(),
		ObjectKey:  key,
		Filename:   header.Filename,
		Format:     format,
		UploadedAt: now,
	}

	task, err := workers.NewRestockImportTask(payload)
	if err != nil {
		h.discard(r, key)
		h.logger.ErrorContext(ctx, "failed to build import task", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	info, err := h.queue.EnqueueContext(ctx, task)
	if err != nil {
		h.discard(r, key)
		h.logger.ErrorContext(ctx, "failed to enqueue import task", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "restock import queued",
		slog.String("job_id", payload.JobID),
		slog.String("task_id", info.ID),
		slog.String("format", format),
		slog.Int64("size", header.Size))

	h.respondJSON(w, http.StatusAccepted, ImportResponse{
		JobID:     payload.JobID,
		TaskID:    info.ID,
		ObjectKey: key,
		Format:    format,
		Status:    "queued",
	})
}

func (h *ImportHandler) discard(r *http.Request, key string) {
	if err := h.storage.Delete(r.Context(), key); err != nil {
		h.logger.WarnContext(r.Context(), "failed to delete orphaned upload",
			slog.String("object_key", key),
			slog.String("error", err.Error()))
	}
}
