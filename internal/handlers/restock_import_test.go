package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/restock/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportHandler_ImportRestock(t *testing.T) {
	const maxSize = 1 << 20

	tests := []struct {
		name           string
		field          string
		filename       string
		content        []byte
		setupMocks     func(*mocks.MockObjectStorage, *mocks.MockTaskEnqueuer)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:     "queues_xlsx_import",
			field:    "file",
			filename: "delivery.xlsx",
			content:  []byte("PK fake workbook"),
			setupMocks: func(s *mocks.MockObjectStorage, q *mocks.MockTaskEnqueuer) {
				s.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, key string, data io.Reader, _ string) (string, error) {
						assert.True(t, strings.HasPrefix(key, "imports/"))
						assert.True(t, strings.HasSuffix(key, ".xlsx"))
						b, err := io.ReadAll(data)
						require.NoError(t, err)
						assert.Equal(t, "PK fake workbook", string(b))
						return "file://" + key, nil
					})
				q.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
						assert.Equal(t, workers.TypeRestockImportXLSX, task.Type())
						var payload workers.RestockImportPayload
						require.NoError(t, json.Unmarshal(task.Payload(), &payload))
						assert.Equal(t, "delivery.xlsx", payload.Filename)
						assert.Equal(t, workers.FormatXLSX, payload.Format)
						return &asynq.TaskInfo{ID: "task-1", Queue: workers.QueueLedger}, nil
					})
			},
			expectedStatus: http.StatusAccepted,
			validateBody: func(t *testing.T, body []byte) {
				var resp handlers.ImportResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "task-1", resp.TaskID)
				assert.Equal(t, "queued", resp.Status)
				assert.Equal(t, workers.FormatXLSX, resp.Format)
				assert.NotEmpty(t, resp.JobID)
			},
		},
		{
			name:     "queues_pdf_import",
			field:    "file",
			filename: "note.PDF",
			content:  []byte("%PDF-1.4"),
			setupMocks: func(s *mocks.MockObjectStorage, q *mocks.MockTaskEnqueuer) {
				s.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil)
				q.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
						assert.Equal(t, workers.TypeRestockImportPDF, task.Type())
						return &asynq.TaskInfo{ID: "task-2"}, nil
					})
			},
			expectedStatus: http.StatusAccepted,
			validateBody: func(t *testing.T, body []byte) {
				var resp handlers.ImportResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, workers.FormatPDF, resp.Format)
			},
		},
		{
			name:           "rejects_other_extensions",
			field:          "file",
			filename:       "stock.csv",
			content:        []byte("P1,10"),
			setupMocks:     func(*mocks.MockObjectStorage, *mocks.MockTaskEnqueuer) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, "Only .xlsx and .pdf files are allowed", errorBody(t, body))
			},
		},
		{
			name:           "missing_file",
			setupMocks:     func(*mocks.MockObjectStorage, *mocks.MockTaskEnqueuer) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, "File is required", errorBody(t, body))
			},
		},
		{
			name:     "upload_failure",
			field:    "file",
			filename: "delivery.xlsx",
			content:  []byte("data"),
			setupMocks: func(s *mocks.MockObjectStorage, _ *mocks.MockTaskEnqueuer) {
				s.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", errors.New("bucket unreachable"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, "Failed to save upload", errorBody(t, body))
			},
		},
		{
			name:     "enqueue_failure_removes_upload",
			field:    "file",
			filename: "delivery.xlsx",
			content:  []byte("data"),
			setupMocks: func(s *mocks.MockObjectStorage, q *mocks.MockTaskEnqueuer) {
				var stored string
				s.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
						stored = key
						return key, nil
					})
				q.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
				s.EXPECT().Delete(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, key string) error {
						assert.Equal(t, stored, key)
						return nil
					})
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, "Failed to queue import job", errorBody(t, body))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockObjectStorage(ctrl)
			queue := mocks.NewMockTaskEnqueuer(ctrl)
			tt.setupMocks(store, queue)

			handler := handlers.NewImportHandler(store, queue, maxSize, helpers.TestLogger())

			w := httptest.NewRecorder()
			handler.ImportRestock(w, multipartUpload(t, tt.field, tt.filename, tt.content))

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, w.Body.Bytes())
		})
	}
}

func TestImportHandler_RejectsOversizedUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := handlers.NewImportHandler(
		mocks.NewMockObjectStorage(ctrl), mocks.NewMockTaskEnqueuer(ctrl), 64, helpers.TestLogger())

	w := httptest.NewRecorder()
	handler.ImportRestock(w, multipartUpload(t, "file", "big.xlsx", bytes.Repeat([]byte("x"), 4096)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to parse form data", errorBody(t, w.Body.Bytes()))
}
