package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"rtapmon/pkg/config"
	"rtapmon/pkg/logging"
	"rtapmon/pkg/protocol"
)

// loadRuntime reads the config and builds the logger and decoder every
// command starts from.
func loadRuntime(opts *rootOptions, stderr io.Writer) (config.Config, zerolog.Logger, *protocol.Decoder, error) {
	cfg, found, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), nil, err
	}
	log := logging.New(cfg.Log, stderr)
	if found {
		log.Debug().Str("path", cfg.ConfigPath()).Int("vendors", len(cfg.Vendors)).Msg("config loaded")
	}

	reg, err := cfg.BuildRegistry()
	if err != nil {
		return config.Config{}, zerolog.Nop(), nil, fmt.Errorf("build registry: %w", err)
	}
	return cfg, log, protocol.NewDecoder(reg), nil
}

// openOutput returns stdout when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
