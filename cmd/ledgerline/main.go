package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/audit"
	"github.com/smallbiznis/ledgerline/internal/clock"
	"github.com/smallbiznis/ledgerline/internal/config"
	"github.com/smallbiznis/ledgerline/internal/expense"
	"github.com/smallbiznis/ledgerline/internal/generation"
	"github.com/smallbiznis/ledgerline/internal/invoice"
	"github.com/smallbiznis/ledgerline/internal/logger"
	"github.com/smallbiznis/ledgerline/internal/migration"
	"github.com/smallbiznis/ledgerline/internal/money"
	"github.com/smallbiznis/ledgerline/internal/notification"
	"github.com/smallbiznis/ledgerline/internal/observability"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
	"github.com/smallbiznis/ledgerline/internal/scheduler"
	"github.com/smallbiznis/ledgerline/internal/server"
	"github.com/smallbiznis/ledgerline/internal/settlement"
	"github.com/smallbiznis/ledgerline/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		money.Module,
		audit.Module,
		notification.Module,
		invoice.Module,
		expense.Module,
		recurrence.Module,
		settlement.Module,
		generation.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
