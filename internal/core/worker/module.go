package worker

import "go.uber.org/fx"

// Module forces instantiation of every worker registered in the "workers"
// group so their lifecycle hooks are appended.
func Module() fx.Option {
	return fx.Invoke(
		fx.Annotate(func(workers []worker) {}, fx.ParamTags(`group:"workers"`)),
	)
}
