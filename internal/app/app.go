// Package app assembles the fx application.
package app

import (
	"go.uber.org/fx"

	"github.com/Muscledia/gamification-service/internal/core/config"
	"github.com/Muscledia/gamification-service/internal/core/health"
	"github.com/Muscledia/gamification-service/internal/core/logger"
	"github.com/Muscledia/gamification-service/internal/core/worker"
	"github.com/Muscledia/gamification-service/internal/dispatcher"
	"github.com/Muscledia/gamification-service/internal/httpapi"
	"github.com/Muscledia/gamification-service/internal/idempotency"
	"github.com/Muscledia/gamification-service/internal/outbox"
	"github.com/Muscledia/gamification-service/internal/platform/kafka"
	"github.com/Muscledia/gamification-service/internal/platform/mongo"
	"github.com/Muscledia/gamification-service/internal/platform/redis"
	"github.com/Muscledia/gamification-service/internal/reconciler"
	"github.com/Muscledia/gamification-service/internal/rules"
)

// New builds the full service: consumers, relay, reconciler and HTTP API.
func New() *fx.App {
	return fx.New(
		InfraOptions(),
		kafka.Module(),
		redis.Module(),
		idempotency.Module(),
		outbox.Module(),
		rules.Module(),
		dispatcher.Module(),
		reconciler.Module(),
		httpapi.Module(),
		worker.Module(),
	)
}

// InfraOptions is the minimal stack shared with operator tooling: identity,
// configuration, logging, readiness tracking and the mongo connection.
func InfraOptions() fx.Option {
	return fx.Options(
		logger.Module(),
		config.Module(),
		config.ViperModule(),
		health.Module(),
		mongo.Module(),
	)
}
