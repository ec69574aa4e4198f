package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time for services that schedule or stamp records.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns a Clock backed by the wall clock (UTC).
func NewSystemClock() Clock { return systemClock{} }

// Module provides the system clock.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
