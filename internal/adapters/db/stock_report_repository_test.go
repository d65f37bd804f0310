package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/test/helpers"
)

const (
	locationSummaryQuery = `SELECT location, COUNT\(\*\), COALESCE\(SUM\(on_hand\), 0\), COALESCE\(SUM\(reserved\), 0\), COUNT\(\*\) FILTER \(WHERE on_hand <= minimum\) FROM stock_records WHERE active = \$1 GROUP BY location ORDER BY location`
	countLowStockQuery   = `SELECT COUNT\(\*\) FROM stock_records WHERE \(active = \$1 AND on_hand <= minimum\)`
)

func TestStockReportRepository_LocationSummaries(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      []domain.LocationSummary
		wantErr   bool
	}{
		{
			name: "groups_by_location",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"location", "count", "on_hand", "reserved", "low"}).
					AddRow("aisle-1", 3, 42, 5, 1).
					AddRow("dairy", 1, 0, 0, 1)
				mock.ExpectQuery(locationSummaryQuery).WithArgs(true).WillReturnRows(rows)
			},
			want: []domain.LocationSummary{
				{Location: "aisle-1", Products: 3, TotalOnHand: 42, TotalReserved: 5, LowStock: 1},
				{Location: "dairy", Products: 1, TotalOnHand: 0, TotalReserved: 0, LowStock: 1},
			},
		},
		{
			name: "empty_table",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"location", "count", "on_hand", "reserved", "low"})
				mock.ExpectQuery(locationSummaryQuery).WithArgs(true).WillReturnRows(rows)
			},
			want: []domain.LocationSummary{},
		},
		{
			name: "query_error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(locationSummaryQuery).WithArgs(true).WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, sqlDB := helpers.SetupMockDB(t)
			tt.setupMock(mock)

			repo := db.NewStockReportRepository(sqlDB, helpers.TestLogger())
			got, err := repo.LocationSummaries(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to query location summaries")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStockReportRepository_CountLowStock(t *testing.T) {
	t.Run("returns_count", func(t *testing.T) {
		mock, sqlDB := helpers.SetupMockDB(t)
		mock.ExpectQuery(countLowStockQuery).
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		repo := db.NewStockReportRepository(sqlDB, helpers.TestLogger())
		count, err := repo.CountLowStock(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps_errors", func(t *testing.T) {
		mock, sqlDB := helpers.SetupMockDB(t)
		mock.ExpectQuery(countLowStockQuery).
			WithArgs(true).
			WillReturnError(errors.New("timeout"))

		repo := db.NewStockReportRepository(sqlDB, helpers.TestLogger())
		_, err := repo.CountLowStock(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to count low stock")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
