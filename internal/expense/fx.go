package expense

import (
	"github.com/smallbiznis/ledgerline/internal/expense/service"
	"go.uber.org/fx"
)

var Module = fx.Module("expense.service",
	fx.Provide(service.NewService),
)
