package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/settlement"
)

type createInvoiceRequest struct {
	CustomerName        string    `json:"customer_name"`
	CustomerEmail       string    `json:"customer_email"`
	Currency            string    `json:"currency"`
	ExchangeRate        *float64  `json:"exchange_rate"`
	ReportingEquivalent *float64  `json:"reporting_equivalent"`
	TotalAmount         float64   `json:"total_amount"`
	PaidAmount          float64   `json:"paid_amount"`
	PaymentTerms        string    `json:"payment_terms"`
	IssueDate           time.Time `json:"issue_date"`
	IsTemplate          bool      `json:"is_template"`
	Notes               string    `json:"notes"`
}

type updateAmountsRequest struct {
	TotalAmount *float64 `json:"total_amount"`
	PaidAmount  *float64 `json:"paid_amount"`
}

type transitionRequest struct {
	Status         string   `json:"status"`
	ReceivedAmount *float64 `json:"received_amount"`
	Payment        *struct {
		Method    string    `json:"method"`
		Reference string    `json:"reference"`
		PaidOn    time.Time `json:"paid_on"`
		Notes     string    `json:"notes"`
	} `json:"payment"`
}

func (s *Server) ListInvoices(c *gin.Context) {
	invoices, err := s.invoiceSvc.List(c.Request.Context(), ownerFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		OwnerID:             ownerFromContext(c),
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		Currency:            req.Currency,
		ExchangeRate:        req.ExchangeRate,
		ReportingEquivalent: req.ReportingEquivalent,
		TotalAmount:         req.TotalAmount,
		PaidAmount:          req.PaidAmount,
		PaymentTerms:        req.PaymentTerms,
		IssueDate:           req.IssueDate,
		IsTemplate:          req.IsTemplate,
		Notes:               req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), ownerFromContext(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) UpdateInvoiceAmounts(c *gin.Context) {
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

	invoice, err := s.invoiceSvc.UpdateAmounts(c.Request.Context(), invoicedomain.UpdateAmountsRequest{
		OwnerID:     ownerFromContext(c),
		InvoiceID:   id,
		TotalAmount: req.TotalAmount,
		PaidAmount:  req.PaidAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.Cancel(c.Request.Context(), ownerFromContext(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) TransitionInvoice(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	transition := settlement.TransitionRequest{
		OwnerID:        ownerFromContext(c),
		InvoiceID:      id,
		ReceivedAmount: req.ReceivedAmount,
	}
	if req.Status != "" {
		status, err := settlement.ParseStatus(req.Status)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		transition.TargetStatus = &status
	}
	if req.Payment != nil {
		transition.Payment = &settlement.PaymentInput{
			Method:    req.Payment.Method,
			Reference: req.Payment.Reference,
			PaidOn:    req.Payment.PaidOn,
			Notes:     req.Payment.Notes,
		}
	}

	invoice, err := s.settlementSvc.Transition(c.Request.Context(), transition)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), ownerFromContext(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
