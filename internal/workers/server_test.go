package workers_test

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{retry: 0, expected: time.Second},
		{retry: 3, expected: 8 * time.Second},
		{retry: 9, expected: 512 * time.Second},
		{retry: 10, expected: 10 * time.Minute},
		{retry: 64, expected: 10 * time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, workers.ExponentialBackoff(tt.retry, nil, nil), "retry %d", tt.retry)
	}
}

func TestNewAlertMux_RoutesBothAlertKinds(t *testing.T) {
	recorder := &recorderStub{}
	mux := workers.NewAlertMux(workers.NewAlertProcessor(recorder, helpers.TestLogger()))

	maxQty := int64(5)
	low := domain.NewStockAlert(domain.AlertLowStock,
		*helpers.CreateTestStockRecord(func(r *domain.StockRecord) { r.ProductID = "P1"; r.OnHand = 1 }), time.Now())
	over := domain.NewStockAlert(domain.AlertOverstock,
		*helpers.CreateTestStockRecord(func(r *domain.StockRecord) { r.ProductID = "P2"; r.OnHand = 9; r.Maximum = &maxQty }), time.Now())

	for _, alert := range []domain.StockAlert{low, over} {
		task, err := workers.NewStockAlertTask(alert)
		require.NoError(t, err)
		require.NoError(t, mux.ProcessTask(context.Background(), task))
	}

	require.Len(t, recorder.alerts, 2)
	assert.Equal(t, domain.AlertLowStock, recorder.alerts[0].Kind)
	assert.Equal(t, domain.AlertOverstock, recorder.alerts[1].Kind)
}

func TestNewLedgerMux_RoutesPrune(t *testing.T) {
	pruner := &prunerStub{}
	mux := workers.NewLedgerMux(
		workers.NewRestockProcessor(nil, nil, nil, helpers.TestLogger()),
		workers.NewPruneProcessor(pruner, helpers.TestLogger()),
	)

	task, err := workers.NewPruneTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.False(t, pruner.cutoff.IsZero())
	assert.Equal(t, workers.TypePruneReservations, pruner.taskType)

	// alert tasks belong to the alert worker
	err = mux.ProcessTask(context.Background(), asynq.NewTask(workers.TypeLowStockAlert, nil))
	assert.Error(t, err)
}
