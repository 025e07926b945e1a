package main

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/lockhaven/swapcore/errors"
)

type config struct {
	// DBPath selects the SQLite database. Empty means in-memory only.
	DBPath    string `envconfig:"SWAPSIM_DB" default:""`
	LogLevel  string `envconfig:"SWAPSIM_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"SWAPSIM_LOG_FORMAT" default:"text"`

	// Amount of the source leg moved by the simulated swap.
	Amount int64 `envconfig:"SWAPSIM_AMOUNT" default:"10"`
	// PartialFills splits the order into this many equal fills. Zero or
	// one settles the order in one piece.
	PartialFills int `envconfig:"SWAPSIM_PARTIAL_FILLS" default:"0"`
}

func newConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return config{}, errors.Wrap(err, "process environment")
	}
	if cfg.Amount <= 0 {
		return config{}, errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	if cfg.PartialFills < 0 {
		return config{}, errors.Wrap(errors.ErrInput, "partial fills must not be negative")
	}
	return cfg, nil
}
