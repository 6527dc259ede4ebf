package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from the process environment using `env` struct tags:
//
//	type HTTP struct {
//	    Port    int    `env:"HTTP_PORT" envDefault:"8080"`
//	    Host    string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
//	}
//
// Missing variables marked required and unparseable values both surface as
// errors.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
