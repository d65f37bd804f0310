// internal/core/services/sales_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func testSale(lines ...domain.SaleLine) domain.Sale {
	return domain.Sale{
		Lines: lines,
		Payment: domain.PaymentInfo{
			Method: domain.PaymentCash,
			Amount: decimal.NewFromInt(100),
		},
	}
}

func heldReservation(productID string, qty int64) *domain.Reservation {
	return domain.NewReservation(productID, qty, time.Now())
}

func TestSalesService_Checkout(t *testing.T) {
	price := decimal.RequireFromString("2.50")

	tests := []struct {
		name          string
		sale          domain.Sale
		setupMocks    func(*mocks.MockLedgerService)
		expectedError bool
		errorIs       error
		errorContains string
		check         func(*testing.T, *domain.SaleReceipt)
	}{
		{
			name: "all_lines_reserved_and_committed",
			sale: testSale(
				domain.SaleLine{ProductID: "P1", Quantity: 2, UnitPrice: price},
				domain.SaleLine{ProductID: "P2", Quantity: 1, UnitPrice: price},
			),
			setupMocks: func(m *mocks.MockLedgerService) {
				r1, r2 := heldReservation("P1", 2), heldReservation("P2", 1)
				gomock.InOrder(
					m.EXPECT().Reserve(gomock.Any(), "P1", int64(2)).Return(r1, nil),
					m.EXPECT().Reserve(gomock.Any(), "P2", int64(1)).Return(r2, nil),
					m.EXPECT().Commit(gomock.Any(), r1.ID).Return(nil),
					m.EXPECT().Commit(gomock.Any(), r2.ID).Return(nil),
				)
			},
			check: func(t *testing.T, r *domain.SaleReceipt) {
				assert.True(t, r.Complete)
				assert.True(t, r.Total.Equal(decimal.RequireFromString("7.50")))
				assert.True(t, r.Change.Equal(decimal.RequireFromString("92.50")))
				require.Len(t, r.Lines, 2)
				for _, l := range r.Lines {
					assert.Equal(t, domain.ReservationCommitted, l.State)
				}
			},
		},
		{
			name: "second_line_short_releases_first",
			sale: testSale(
				domain.SaleLine{ProductID: "P1", Quantity: 2, UnitPrice: price},
				domain.SaleLine{ProductID: "P2", Quantity: 9, UnitPrice: price},
			),
			setupMocks: func(m *mocks.MockLedgerService) {
				r1 := heldReservation("P1", 2)
				m.EXPECT().Reserve(gomock.Any(), "P1", int64(2)).Return(r1, nil)
				m.EXPECT().Reserve(gomock.Any(), "P2", int64(9)).
					Return(nil, &domain.LedgerError{Op: "reserve", ProductID: "P2", Err: domain.ErrInsufficientStock})
				m.EXPECT().Release(gomock.Any(), r1.ID).Return(nil)
			},
			expectedError: true,
			errorIs:       domain.ErrInsufficientStock,
			errorContains: "failed to reserve P2",
			check: func(t *testing.T, r *domain.SaleReceipt) {
				assert.False(t, r.Complete)
				require.Len(t, r.Lines, 1)
				assert.Equal(t, domain.ReservationReleased, r.Lines[0].State)
			},
		},
		{
			name: "payment_below_total_releases_everything",
			sale: func() domain.Sale {
				s := testSale(domain.SaleLine{ProductID: "P1", Quantity: 3, UnitPrice: price})
				s.Payment.Amount = decimal.RequireFromString("7.49")
				return s
			}(),
			setupMocks: func(m *mocks.MockLedgerService) {
				r1 := heldReservation("P1", 3)
				m.EXPECT().Reserve(gomock.Any(), "P1", int64(3)).Return(r1, nil)
				m.EXPECT().Release(gomock.Any(), r1.ID).Return(nil)
			},
			expectedError: true,
			errorIs:       services.ErrPaymentInsufficient,
			errorContains: "total 7.50, paid 7.49",
		},
		{
			name: "commit_failure_keeps_committed_lines",
			sale: testSale(
				domain.SaleLine{ProductID: "P1", Quantity: 1, UnitPrice: price},
				domain.SaleLine{ProductID: "P2", Quantity: 1, UnitPrice: price},
			),
			setupMocks: func(m *mocks.MockLedgerService) {
				r1, r2 := heldReservation("P1", 1), heldReservation("P2", 1)
				m.EXPECT().Reserve(gomock.Any(), "P1", int64(1)).Return(r1, nil)
				m.EXPECT().Reserve(gomock.Any(), "P2", int64(1)).Return(r2, nil)
				m.EXPECT().Commit(gomock.Any(), r1.ID).Return(nil)
				m.EXPECT().Commit(gomock.Any(), r2.ID).
					Return(domain.NewPersistenceError("commit", "P2", r2.ID, errors.New("db down")))
				m.EXPECT().Release(gomock.Any(), r2.ID).Return(nil)
			},
			expectedError: true,
			errorIs:       domain.ErrPersistence,
			check: func(t *testing.T, r *domain.SaleReceipt) {
				assert.False(t, r.Complete)
				assert.Equal(t, domain.ReservationCommitted, r.Lines[0].State)
				assert.Equal(t, domain.ReservationReleased, r.Lines[1].State)
			},
		},
		{
			name:          "empty_sale_rejected_before_ledger",
			sale:          testSale(),
			setupMocks:    func(m *mocks.MockLedgerService) {},
			expectedError: true,
			errorContains: "at least one line",
		},
		{
			name:          "zero_quantity_line_rejected",
			sale:          testSale(domain.SaleLine{ProductID: "P1", Quantity: 0, UnitPrice: price}),
			setupMocks:    func(m *mocks.MockLedgerService) {},
			expectedError: true,
			errorIs:       domain.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockLedgerService(ctrl)
			tt.setupMocks(ledger)

			svc := services.NewSalesService(ledger, helpers.TestLogger())
			receipt, err := svc.Checkout(context.Background(), tt.sale)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorIs != nil {
					assert.ErrorIs(t, err, tt.errorIs)
				}
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, receipt.SaleID)
			}
			if tt.check != nil {
				require.NotNil(t, receipt)
				tt.check(t, receipt)
			}
		})
	}
}

func TestSalesService_CheckoutAgainstLedger(t *testing.T) {
	ctx := context.Background()
	ledger, repo := setupLedger(t,
		helpers.CreateTestStockRecord(func(r *domain.StockRecord) { r.ProductID = "MILK"; r.OnHand = 5 }),
		helpers.CreateTestStockRecord(func(r *domain.StockRecord) { r.ProductID = "BREAD"; r.OnHand = 1 }),
	)
	acceptSaves(repo)

	svc := services.NewSalesService(ledger, helpers.TestLogger())
	price := decimal.NewFromInt(1)

	_, err := svc.Checkout(ctx, testSale(
		domain.SaleLine{ProductID: "MILK", Quantity: 2, UnitPrice: price},
		domain.SaleLine{ProductID: "BREAD", Quantity: 2, UnitPrice: price},
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	milk, err := ledger.Get(ctx, "MILK")
	require.NoError(t, err)
	assert.Equal(t, int64(5), milk.Available(), "aborted sale must give stock back")

	receipt, err := svc.Checkout(ctx, testSale(
		domain.SaleLine{ProductID: "MILK", Quantity: 2, UnitPrice: price},
		domain.SaleLine{ProductID: "BREAD", Quantity: 1, UnitPrice: price},
	))
	require.NoError(t, err)
	assert.True(t, receipt.Complete)

	milk, err = ledger.Get(ctx, "MILK")
	require.NoError(t, err)
	assert.Equal(t, int64(3), milk.OnHand)
	assert.Equal(t, int64(0), milk.Reserved)
}
