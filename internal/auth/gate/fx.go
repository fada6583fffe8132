package gate

import "go.uber.org/fx"

var Module = fx.Module("auth.gate",
	fx.Provide(New),
)
