package config

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

func NewNATS(cfg *Config) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("fleet-sentinel"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
