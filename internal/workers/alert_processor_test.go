package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

type recorderStub struct {
	alerts []domain.StockAlert
	err    error
}

func (r *recorderStub) Record(_ context.Context, alert domain.StockAlert) error {
	if r.err != nil {
		return r.err
	}
	r.alerts = append(r.alerts, alert)
	return nil
}

type prunerStub struct {
	cutoff   time.Time
	count    int
	taskType string
}

func (p *prunerStub) PruneResolved(ctx context.Context, cutoff time.Time) int {
	p.cutoff = cutoff
	p.taskType, _ = ctx.Value(logger.ContextKeyTaskType).(string)
	return p.count
}

func TestAlertProcessor_ProcessStockAlert(t *testing.T) {
	rec := helpers.CreateTestStockRecord(func(r *domain.StockRecord) {
		r.ProductID = "P1"
		r.OnHand = 2
		r.Minimum = 5
	})
	alert := domain.NewStockAlert(domain.AlertLowStock, *rec, time.Now().UTC())
	task, err := workers.NewStockAlertTask(alert)
	require.NoError(t, err)

	tests := []struct {
		name      string
		task      *asynq.Task
		recordErr error
		wantErr   bool
		skipRetry bool
		recorded  int
	}{
		{name: "records_alert", task: task, recorded: 1},
		{name: "recorder_failure_is_retried", task: task, recordErr: errors.New("redis down"), wantErr: true},
		{name: "bad_payload_is_skipped", task: asynq.NewTask(workers.TypeLowStockAlert, []byte("nope")), wantErr: true, skipRetry: true},
		{name: "missing_product_is_skipped", task: asynq.NewTask(workers.TypeLowStockAlert, []byte(`{"kind":"low_stock"}`)), wantErr: true, skipRetry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &recorderStub{err: tt.recordErr}
			processor := workers.NewAlertProcessor(recorder, helpers.TestLogger())

			err := processor.ProcessStockAlert(context.Background(), tt.task)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
				return
			}
			require.NoError(t, err)
			require.Len(t, recorder.alerts, tt.recorded)
			assert.Equal(t, "P1", recorder.alerts[0].ProductID)
			assert.Equal(t, int64(2), recorder.alerts[0].OnHand)
		})
	}
}

func TestAsynqNotifier(t *testing.T) {
	maxQty := int64(20)
	rec := helpers.CreateTestStockRecord(func(r *domain.StockRecord) {
		r.ProductID = "P7"
		r.OnHand = 25
		r.Maximum = &maxQty
	})

	tests := []struct {
		name     string
		notify   func(*workers.AsynqNotifier) error
		wantType string
		wantKind string
	}{
		{
			name:     "low_stock",
			notify:   func(n *workers.AsynqNotifier) error { return n.NotifyLowStock(context.Background(), *rec) },
			wantType: workers.TypeLowStockAlert,
			wantKind: domain.AlertLowStock,
		},
		{
			name:     "overstock",
			notify:   func(n *workers.AsynqNotifier) error { return n.NotifyOverstock(context.Background(), *rec) },
			wantType: workers.TypeOverstockAlert,
			wantKind: domain.AlertOverstock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockTaskEnqueuer(ctrl)

			client.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
					assert.Equal(t, tt.wantType, task.Type())

					var alert domain.StockAlert
					require.NoError(t, json.Unmarshal(task.Payload(), &alert))
					assert.Equal(t, tt.wantKind, alert.Kind)
					assert.Equal(t, "P7", alert.ProductID)
					require.NotNil(t, alert.Maximum)
					assert.Equal(t, int64(20), *alert.Maximum)
					return &asynq.TaskInfo{ID: "task-1", Queue: workers.QueueCritical}, nil
				})

			notifier := workers.NewAsynqNotifier(client, helpers.TestLogger())
			require.NoError(t, tt.notify(notifier))
		})
	}
}

func TestAsynqNotifier_EnqueueFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockTaskEnqueuer(ctrl)
	client.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis unavailable"))

	notifier := workers.NewAsynqNotifier(client, helpers.TestLogger())
	err := notifier.NotifyLowStock(context.Background(), *helpers.CreateTestStockRecord())

	assert.ErrorContains(t, err, "redis unavailable")
}

func TestPruneProcessor_PruneReservations(t *testing.T) {
	pruner := &prunerStub{count: 3}
	processor := workers.NewPruneProcessor(pruner, helpers.TestLogger())

	task, err := workers.NewPruneTask(time.Hour)
	require.NoError(t, err)

	before := time.Now().UTC()
	require.NoError(t, processor.PruneReservations(context.Background(), task))

	assert.WithinDuration(t, before.Add(-time.Hour), pruner.cutoff, 5*time.Second)
}

func TestPruneProcessor_DefaultRetention(t *testing.T) {
	pruner := &prunerStub{}
	processor := workers.NewPruneProcessor(pruner, helpers.TestLogger())

	require.NoError(t, processor.PruneReservations(context.Background(),
		asynq.NewTask(workers.TypePruneReservations, nil)))

	assert.WithinDuration(t, time.Now().UTC().Add(-workers.DefaultReservationRetention), pruner.cutoff, 5*time.Second)
}
