// Package config loads the demo-process configuration from the
// environment.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is shared by the producer and consumer demos.
type Config struct {
	// Region is the shared memory region name under /dev/shm.
	Region string `envconfig:"SHMKV_REGION" default:"shmkv_store"`
	// PollInterval paces the consumer's version polling.
	PollInterval time.Duration `envconfig:"SHMKV_POLL_INTERVAL" default:"1s"`
	// HealthAddr, when set, serves liveness/readiness and metrics on that
	// address (producer only).
	HealthAddr string `envconfig:"SHMKV_HEALTH_ADDR" default:""`
}

// Load reads the environment and verifies the result.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if err := Verify(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Verify rejects configurations the demos cannot run with.
func Verify(c Config) error {
	if c.Region == "" {
		return errors.New("config: region name must not be empty")
	}
	if c.PollInterval <= 0 {
		return errors.New("config: poll interval must be positive")
	}
	return nil
}
