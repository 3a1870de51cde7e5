package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
	"centavo/internal/services"
)

type mockTransactionService struct {
	createTransactionFn   func(userID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	getUserTransactionsFn func(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn  func(userID, transactionID uint) (*models.Transaction, error)
	deleteTransactionFn   func(userID, transactionID uint) error
	exportTransactionsFn  func(userID uint, filter services.TransactionFilter) ([]models.Transaction, error)
}

func (m *mockTransactionService) CreateTransaction(userID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, categoryID, transactionType, amount, description, date)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID uint) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) ExportTransactions(userID uint, filter services.TransactionFilter) ([]models.Transaction, error) {
	if m.exportTransactionsFn != nil {
		return m.exportTransactionsFn(userID, filter)
	}
	return []models.Transaction{}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetTransactions)
	auth.GET("/transactions/export", handler.ExportTransactions)
	auth.GET("/transactions/:id", handler.GetTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(_ uint, _ *uint, transactionType models.TransactionType, amount int64, _ string, _ time.Time) (*models.Transaction, error) {
				return &models.Transaction{
					Base:   models.Base{ID: 1},
					Type:   transactionType,
					Amount: amount,
				}, nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":2500,"date":"2025-01-15T00:00:00Z","description":"coffee"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		txn := result["transaction"].(map[string]interface{})
		if txn["amount"].(float64) != 2500 {
			t.Errorf("expected amount=2500, got %v", txn["amount"])
		}
	})

	t.Run("returns 400 on zero amount", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":0,"date":"2025-01-15T00:00:00Z"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"transfer","amount":2500,"date":"2025-01-15T00:00:00Z"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 on foreign category", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(_ uint, _ *uint, _ models.TransactionType, _ int64, _ string, _ time.Time) (*models.Transaction, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"category_id":99,"type":"expense","amount":2500,"date":"2025-01-15T00:00:00Z"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}

func TestTransactionHandler_GetTransactions(t *testing.T) {
	t.Run("passes filters to service", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		svc := &mockTransactionService{
			getUserTransactionsFn: func(_ uint, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?from=2025-01-01&type=expense&min_amount=1000&category_id=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.FromDate == nil || !gotFilter.FromDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("from date not passed: %v", gotFilter.FromDate)
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeExpense {
			t.Error("type filter not passed")
		}
		if gotFilter.MinAmount == nil || *gotFilter.MinAmount != 1000 {
			t.Error("min_amount filter not passed")
		}
		if gotFilter.CategoryID == nil || *gotFilter.CategoryID != 3 {
			t.Error("category_id filter not passed")
		}
	})

	t.Run("returns 400 on malformed from date", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?from=15-01-2025", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid type filter", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?type=transfer", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_ExportTransactions(t *testing.T) {
	exportFixture := func() []models.Transaction {
		category := &models.Category{Name: "Groceries"}
		return []models.Transaction{
			{
				Base:        models.Base{ID: 1},
				Type:        models.TransactionTypeExpense,
				Amount:      2500,
				Description: "weekly shop",
				Date:        time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
				Category:    category,
			},
			{
				Base:   models.Base{ID: 2},
				Type:   models.TransactionTypeIncome,
				Amount: 500000,
				Date:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			},
		}
	}

	t.Run("defaults to json format", func(t *testing.T) {
		svc := &mockTransactionService{
			exportTransactionsFn: func(_ uint, _ services.TransactionFilter) ([]models.Transaction, error) {
				return exportFixture(), nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions/export", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		transactions := result["transactions"].([]interface{})
		if len(transactions) != 2 {
			t.Errorf("expected 2 transactions, got %d", len(transactions))
		}
	})

	t.Run("writes csv with header and category name", func(t *testing.T) {
		svc := &mockTransactionService{
			exportTransactionsFn: func(_ uint, _ services.TransactionFilter) ([]models.Transaction, error) {
				return exportFixture(), nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions/export?format=csv", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
			t.Errorf("Content-Type = %q, want text/csv", got)
		}
		if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "transactions.csv") {
			t.Errorf("Content-Disposition = %q", got)
		}

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), rec.Body.String())
		}
		if lines[0] != "id,date,type,category,amount_cents,description" {
			t.Errorf("header = %q", lines[0])
		}
		if lines[1] != "1,2025-01-10,expense,Groceries,2500,weekly shop" {
			t.Errorf("row 1 = %q", lines[1])
		}
		if lines[2] != "2,2025-01-15,income,,500000," {
			t.Errorf("row 2 = %q", lines[2])
		}
	})

	t.Run("returns 400 on unknown format", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions/export?format=xml", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/1", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when transaction not found", func(t *testing.T) {
		svc := &mockTransactionService{
			deleteTransactionFn: func(_, _ uint) error {
				return apperrors.ErrTransactionNotFound
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}
