package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a transaction. Expense transactions also feed
// the spend accumulator of every matching budget in the same database
// transaction, so budget state can never drift from the ledger.
func (s *transactionService) CreateTransaction(
	userID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if transactionType == models.TransactionTypeExpense {
			if err := s.applySpend(tx, transaction, amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// applySpend adjusts the spend accumulator of every budget whose period
// covers the transaction date. Budgets without a category track overall
// spending; budgets bound to a category only match transactions in it.
// The spend-changed trigger keeps the lifecycle status consistent.
func (s *transactionService) applySpend(tx *gorm.DB, transaction *models.Transaction, delta int64) error {
	query := tx.Where("user_id = ?", transaction.UserID).
		Where("status IN ?", []models.BudgetStatus{models.BudgetStatusActive, models.BudgetStatusExceeded}).
		Where("period_start <= ? AND period_end >= ?", transaction.Date, transaction.Date)
	if transaction.CategoryID != nil {
		query = query.Where("category_id IS NULL OR category_id = ?", *transaction.CategoryID)
	} else {
		query = query.Where("category_id IS NULL")
	}

	var budgets []models.Budget
	if err := query.Find(&budgets).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range budgets {
		b := &budgets[i]
		b.Spent += delta
		if b.Spent < 0 {
			b.Spent = 0
		}
		b.ApplyTrigger(models.TriggerSpendChanged)
		if err := tx.Model(b).Updates(map[string]interface{}{
			"spent":  b.Spent,
			"status": b.Status,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

// GetUserTransactions returns a filtered, paginated list of transactions.
func (s *transactionService) GetUserTransactions(
	userID uint,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.applyFilter(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").Order("date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *transactionService) applyFilter(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	return query
}

// GetTransactionByID returns a transaction by ID if it belongs to the user.
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction removes a transaction and reverses its effect on any
// matching budgets' spend accumulator.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if transaction.Type == models.TransactionTypeExpense {
			if err := s.applySpend(tx, transaction, -transaction.Amount); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExportTransactions returns the full filtered transaction list, oldest
// first, for CSV/JSON export. Not paginated.
func (s *transactionService) ExportTransactions(userID uint, filter TransactionFilter) ([]models.Transaction, error) {
	query := s.applyFilter(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)

	var transactions []models.Transaction
	if err := query.Preload("Category").Order("date ASC, id ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}
