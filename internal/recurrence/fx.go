package recurrence

import "go.uber.org/fx"

var Module = fx.Module("recurrence.service",
	fx.Provide(NewService),
)
