// Package server exposes the HTTP API over gin.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ledgerline/internal/config"
	expensedomain "github.com/smallbiznis/ledgerline/internal/expense/domain"
	"github.com/smallbiznis/ledgerline/internal/generation"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
	"github.com/smallbiznis/ledgerline/internal/settlement"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	genID         *snowflake.Node
	invoiceSvc    invoicedomain.Service
	expenseSvc    expensedomain.Service
	scheduleSvc   *recurrence.Service
	settlementSvc *settlement.Service
	generationSvc *generation.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	GenID         *snowflake.Node
	InvoiceSvc    invoicedomain.Service
	ExpenseSvc    expensedomain.Service
	ScheduleSvc   *recurrence.Service
	SettlementSvc *settlement.Service
	GenerationSvc *generation.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		genID:         p.GenID,
		invoiceSvc:    p.InvoiceSvc,
		expenseSvc:    p.ExpenseSvc,
		scheduleSvc:   p.ScheduleSvc,
		settlementSvc: p.SettlementSvc,
		generationSvc: p.GenerationSvc,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1", s.OwnerRequired())

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PATCH("/invoices/:id/amounts", s.UpdateInvoiceAmounts)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.POST("/invoices/:id/transition", s.TransitionInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)

	// -------- Expenses --------
	api.GET("/expenses", s.ListExpenses)
	api.POST("/expenses", s.CreateExpense)
	api.GET("/expenses/:id", s.GetExpenseByID)
	api.PATCH("/expenses/:id/amounts", s.UpdateExpenseAmounts)
	api.DELETE("/expenses/:id", s.DeleteExpense)

	// -------- Recurring schedules --------
	api.GET("/schedules", s.ListSchedules)
	api.POST("/schedules", s.CreateSchedule)
	api.GET("/schedules/:id", s.GetScheduleByID)
	api.DELETE("/schedules/:id", s.DeleteSchedule)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/v1/admin")

	admin.POST("/generation/run", s.RunGeneration)
}
