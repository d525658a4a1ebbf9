package cmd

import "log/slog"

// Service installs or removes the systemd unit that runs "corebridge run"
// as an always-on background service, the deployment path for a host that
// isn't launching the core interactively.
type Service struct {
	Uninstall bool `help:"Remove the installed service instead of installing it"`
}

// Run is called by Kong when the service command is executed.
func (s *Service) Run(logger *slog.Logger) error {
	if s.Uninstall {
		return uninstall(logger)
	}
	return install(logger)
}
