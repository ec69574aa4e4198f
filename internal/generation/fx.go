package generation

import "go.uber.org/fx"

// Module wires the document generation service.
var Module = fx.Module("generation.service",
	fx.Provide(NewService),
)
