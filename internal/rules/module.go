package rules

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Provide(
		NewEvaluator,
		NewUserRepository,
		NewChallengeRepository,
		NewApplier,
	)
}
