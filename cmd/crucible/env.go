package main

import (
	"fmt"

	"crucible/internal/config"
	"crucible/internal/extract"
	"crucible/internal/redact"
)

// env bundles the objects nearly every command needs.
type env struct {
	cfg *config.Config
	reg *extract.Registry
	red redact.Redactor
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{
		cfg: cfg,
		reg: extract.DefaultRegistry(),
		red: redact.NewReplacer(cfg.Redact),
	}, nil
}
