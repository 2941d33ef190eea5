// Package app turns a loaded configuration into the runtime collaborators
// shared by the binaries.
package app

import (
	"context"
	"fmt"

	"supply-rounds/internal/config"
	"supply-rounds/internal/data"
	"supply-rounds/internal/events"
	"supply-rounds/internal/logging"
	"supply-rounds/internal/model"
	"supply-rounds/internal/rounds"
	"supply-rounds/internal/topology"
)

// NewLogger builds the configured logger.
func NewLogger(cfg *config.Config) logging.Logger {
	return logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// LoadNetwork reads the topology from topology.dsn when set, otherwise from
// the CSV tables in topology.data_dir.
func LoadNetwork(ctx context.Context, cfg *config.Config, log logging.Logger) (*model.Network, error) {
	var (
		net *model.Network
		err error
	)
	if cfg.Topology.DSN != "" {
		var s *topology.Store
		s, err = topology.Open(ctx, cfg.Topology.DSN)
		if err != nil {
			return nil, fmt.Errorf("open topology: %w", err)
		}
		defer s.Close()
		net, err = s.LoadNetwork(ctx)
	} else {
		net, err = topology.LoadDir(ctx, cfg.Topology.DataDir, cfg.Topology.SeparatorRune())
	}
	if err != nil {
		return nil, fmt.Errorf("load topology: %w", err)
	}
	sum := net.Summary()
	log.Info(ctx, "topology loaded",
		logging.Int("refineries", sum.Refineries),
		logging.Int("tanks", sum.Tanks),
		logging.Int("customers", sum.Customers),
		logging.Int("connections", sum.Connections))
	return net, nil
}

// NewArbiter builds an arbiter client from the arbiter section.
func NewArbiter(cfg *config.Config, log logging.Logger) *data.ArbiterClient {
	return data.NewArbiterClient(cfg.Arbiter.APIKey, cfg.Arbiter.BaseURL, data.ArbiterOptions{
		Timeout:   cfg.Arbiter.Timeout,
		RateRPS:   cfg.Arbiter.RateRPS,
		RateBurst: cfg.Arbiter.RateBurst,
		Logger:    log,
	})
}

// NewBroker returns a Redis broker when events.redis_url is set and an
// in-memory one otherwise.
func NewBroker(cfg *config.Config) (events.Broker, error) {
	if cfg.Events.RedisURL == "" {
		return events.NewMemoryBroker(), nil
	}
	b, err := events.NewRedisBroker(cfg.Events.RedisURL, cfg.Events.ChannelPrefix)
	if err != nil {
		return nil, fmt.Errorf("redis broker: %w", err)
	}
	return b, nil
}

// SessionOptions maps the game section onto session options.
func SessionOptions(cfg *config.Config, log logging.Logger, broker events.Broker) rounds.Options {
	return rounds.Options{
		Rounds: cfg.Game.Rounds,
		Params: cfg.Game.StrategyParams(),
		Logger: log,
		Broker: broker,
	}
}
