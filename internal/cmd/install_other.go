//go:build !linux

package cmd

import (
	"fmt"
	"log/slog"
)

func install(logger *slog.Logger) error {
	return fmt.Errorf("service install is only supported on linux (systemd)")
}

func uninstall(logger *slog.Logger) error {
	return fmt.Errorf("service install is only supported on linux (systemd)")
}
