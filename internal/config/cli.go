// Package config defines the top-level kong CLI surface for the
// corebridge binary: logging flags shared by every subcommand, plus the
// subcommand structs themselves (wired to their Run methods in
// internal/cmd).
package config

import "github.com/retropad/corebridge/internal/cmd"

// LogOptions are the logging flags every subcommand shares.
type LogOptions struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"COREBRIDGE_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of stdout/stderr" env:"COREBRIDGE_LOG_FILE"`
	RawFile string `help:"Write a raw CDC wire trace to this file" env:"COREBRIDGE_LOG_RAWFILE"`
}

// CLI is the root command structure parsed by kong in cmd/corebridge.
type CLI struct {
	Log LogOptions `embed:"" prefix:"log."`

	Run     cmd.Run     `cmd:"" help:"Run the translation core against a simulated or injected transport"`
	Config  cmd.Config  `cmd:"" help:"Generate a configuration template"`
	Service cmd.Service `cmd:"" help:"Install or remove the corebridge systemd service"`
}
