package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	expensedomain "github.com/smallbiznis/ledgerline/internal/expense/domain"
)

type createExpenseRequest struct {
	Vendor              string    `json:"vendor"`
	Category            string    `json:"category"`
	Department          string    `json:"department"`
	ExpenseDate         time.Time `json:"expense_date"`
	Currency            string    `json:"currency"`
	ExchangeRate        *float64  `json:"exchange_rate"`
	ReportingEquivalent *float64  `json:"reporting_equivalent"`
	TotalAmount         float64   `json:"total_amount"`
	PaidAmount          float64   `json:"paid_amount"`
	IsTemplate          bool      `json:"is_template"`
	Notes               string    `json:"notes"`
}

func (s *Server) ListExpenses(c *gin.Context) {
	expenses, err := s.expenseSvc.List(c.Request.Context(), ownerFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": expenses})
}

func (s *Server) CreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	expense, err := s.expenseSvc.Create(c.Request.Context(), expensedomain.CreateExpenseRequest{
		OwnerID:             ownerFromContext(c),
		Vendor:              req.Vendor,
		Category:            req.Category,
		Department:          req.Department,
		ExpenseDate:         req.ExpenseDate,
		Currency:            req.Currency,
		ExchangeRate:        req.ExchangeRate,
		ReportingEquivalent: req.ReportingEquivalent,
		TotalAmount:         req.TotalAmount,
		PaidAmount:          req.PaidAmount,
		IsTemplate:          req.IsTemplate,
		Notes:               req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": expense})
}

func (s *Server) GetExpenseByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	expense, err := s.expenseSvc.GetByID(c.Request.Context(), ownerFromContext(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": expense})
}

func (s *Server) UpdateExpenseAmounts(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateAmountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	expense, err := s.expenseSvc.UpdateAmounts(c.Request.Context(), expensedomain.UpdateAmountsRequest{
		OwnerID:     ownerFromContext(c),
		ExpenseID:   id,
		TotalAmount: req.TotalAmount,
		PaidAmount:  req.PaidAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": expense})
}

func (s *Server) DeleteExpense(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.expenseSvc.Delete(c.Request.Context(), ownerFromContext(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
