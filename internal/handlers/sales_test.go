package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

const checkoutBody = `{
	"sale_id": "6f1c1c1e-3f0a-4d55-9a39-0d3f8e1c2b7a",
	"lines": [
		{"product_id": "P1", "quantity": 2, "unit_price": "4.50"},
		{"product_id": "P2", "quantity": 1, "unit_price": "10.00"}
	],
	"payment": {"method": "cash", "amount": "20.00"}
}`

func TestSalesHandler_Checkout(t *testing.T) {
	saleID := uuid.MustParse("6f1c1c1e-3f0a-4d55-9a39-0d3f8e1c2b7a")

	committed := func(productID string, qty int64) domain.ReservationOutcome {
		return domain.ReservationOutcome{
			ProductID: productID, Quantity: qty, ReservationID: uuid.New(), State: domain.ReservationCommitted,
		}
	}
	released := func(productID string, qty int64) domain.ReservationOutcome {
		return domain.ReservationOutcome{
			ProductID: productID, Quantity: qty, ReservationID: uuid.New(), State: domain.ReservationReleased,
		}
	}

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockSalesService, *mocks.MockCacheRepository)
		expectedStatus int
		validateBody   func(*testing.T, handlers.CheckoutResponse)
	}{
		{
			name: "completed_sale",
			body: checkoutBody,
			setupMocks: func(s *mocks.MockSalesService, c *mocks.MockCacheRepository) {
				s.EXPECT().Checkout(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, sale domain.Sale) (*domain.SaleReceipt, error) {
						assert.Equal(t, saleID, sale.ID)
						require.Len(t, sale.Lines, 2)
						assert.True(t, sale.Total().Equal(decimal.RequireFromString("19")))
						return &domain.SaleReceipt{
							SaleID:   sale.ID,
							Lines:    []domain.ReservationOutcome{committed("P1", 2), committed("P2", 1)},
							Total:    sale.Total(),
							Change:   decimal.RequireFromString("1"),
							Complete: true,
						}, nil
					})
				c.EXPECT().Delete(gomock.Any(), redis_a.DashboardKey()).Return(nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, resp handlers.CheckoutResponse) {
				require.NotNil(t, resp.Receipt)
				assert.True(t, resp.Receipt.Complete)
				assert.Empty(t, resp.Error)
				assert.True(t, resp.Receipt.Change.Equal(decimal.NewFromInt(1)))
			},
		},
		{
			name: "insufficient_stock_releases_earlier_lines",
			body: checkoutBody,
			setupMocks: func(s *mocks.MockSalesService, _ *mocks.MockCacheRepository) {
				s.EXPECT().Checkout(gomock.Any(), gomock.Any()).Return(&domain.SaleReceipt{
					SaleID: saleID,
					Lines:  []domain.ReservationOutcome{released("P1", 2)},
				}, &domain.LedgerError{Op: "reserve", ProductID: "P2",
					Err: &domain.InsufficientStockError{Requested: 1, Available: 0}})
			},
			expectedStatus: http.StatusConflict,
			validateBody: func(t *testing.T, resp handlers.CheckoutResponse) {
				require.NotNil(t, resp.Receipt)
				assert.False(t, resp.Receipt.Complete)
				assert.Equal(t, "insufficient stock: requested 1, available 0", resp.Error)
				assert.Equal(t, domain.ReservationReleased, resp.Receipt.Lines[0].State)
			},
		},
		{
			name: "underpaid_sale",
			body: checkoutBody,
			setupMocks: func(s *mocks.MockSalesService, _ *mocks.MockCacheRepository) {
				s.EXPECT().Checkout(gomock.Any(), gomock.Any()).Return(&domain.SaleReceipt{
					SaleID: saleID,
					Lines:  []domain.ReservationOutcome{released("P1", 2), released("P2", 1)},
					Total:  decimal.RequireFromString("19"),
				}, fmt.Errorf("%w: total 19.00, paid 5.00", services.ErrPaymentInsufficient))
			},
			expectedStatus: http.StatusPaymentRequired,
			validateBody: func(t *testing.T, resp handlers.CheckoutResponse) {
				assert.Equal(t, "Payment does not cover sale total", resp.Error)
				assert.Len(t, resp.Receipt.Lines, 2)
			},
		},
		{
			name: "partial_commit_invalidates_dashboard",
			body: checkoutBody,
			setupMocks: func(s *mocks.MockSalesService, c *mocks.MockCacheRepository) {
				s.EXPECT().Checkout(gomock.Any(), gomock.Any()).Return(&domain.SaleReceipt{
					SaleID: saleID,
					Lines:  []domain.ReservationOutcome{committed("P1", 2), released("P2", 1)},
				}, domain.NewPersistenceError("commit", "P2", uuid.Nil, fmt.Errorf("timeout")))
				c.EXPECT().Delete(gomock.Any(), redis_a.DashboardKey()).Return(nil)
			},
			expectedStatus: http.StatusServiceUnavailable,
			validateBody: func(t *testing.T, resp handlers.CheckoutResponse) {
				assert.Equal(t, "Stock storage unavailable, retry later", resp.Error)
				assert.Equal(t, domain.ReservationCommitted, resp.Receipt.Lines[0].State)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sales := mocks.NewMockSalesService(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			tt.setupMocks(sales, cache)

			handler := handlers.NewSalesHandler(sales, cache, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.Checkout(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp handlers.CheckoutResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			tt.validateBody(t, resp)
		})
	}
}

func TestSalesHandler_CheckoutRejectsInvalidSale(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		serviceErr    error
		expectedError string
	}{
		{
			name:          "malformed_json",
			body:          `{"lines": [`,
			expectedError: "Invalid request body",
		},
		{
			name:          "empty_sale",
			body:          `{"lines": [], "payment": {"method": "cash", "amount": "0"}}`,
			serviceErr:    fmt.Errorf("%w: sale must have at least one line", domain.ErrValidation),
			expectedError: "validation failed: sale must have at least one line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sales := mocks.NewMockSalesService(ctrl)
			if tt.serviceErr != nil {
				sales.EXPECT().Checkout(gomock.Any(), gomock.Any()).Return(nil, tt.serviceErr)
			}

			handler := handlers.NewSalesHandler(sales, nil, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.Checkout(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.expectedError, errorBody(t, w.Body.Bytes()))
		})
	}
}
