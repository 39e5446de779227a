package config

import (
	"git.home.luguber.info/inful/hxshowcase/internal/stylecfg"
)

const (
	DefaultPort            = 8080
	DefaultIndicatorDelay  = "1s"
	DefaultReloadHeartbeat = "30s"
	DefaultShutdownTimeout = "5s"
	DefaultChatSubject     = "hxshowcase.chat"
	DefaultContactsDSN     = ":memory:"
	DefaultResetInterval   = "30m"
	DefaultMetricsPath     = "/metrics"
	DefaultHealthPath      = "/health"
)

// applyDefaults fills every zero-valued field. It never overwrites values
// that were set explicitly.
func applyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.IndicatorDelay == "" {
		s.IndicatorDelay = DefaultIndicatorDelay
	}
	if s.ReloadHeartbeat == "" {
		s.ReloadHeartbeat = DefaultReloadHeartbeat
	}
	if s.ShutdownTimeout == "" {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Styles.Root == "" {
		cfg.Styles.Root = "."
	}
	if len(cfg.Styles.Targets) == 0 {
		cfg.Styles.Targets = stylecfg.DefaultTargets()
	}
	for i := range cfg.Styles.Targets {
		if cfg.Styles.Targets[i].Output == "" {
			cfg.Styles.Targets[i].Output = stylecfg.OutputFor(cfg.Styles.Targets[i].Name)
		}
	}

	if cfg.Chat.Subject == "" {
		cfg.Chat.Subject = DefaultChatSubject
	}

	if cfg.Contacts.DSN == "" {
		cfg.Contacts.DSN = DefaultContactsDSN
	}
	if cfg.Contacts.ResetInterval == "" {
		cfg.Contacts.ResetInterval = DefaultResetInterval
	}

	m := &cfg.Monitoring
	if m.Metrics.Path == "" {
		m.Metrics.Path = DefaultMetricsPath
	}
	if m.Health.Path == "" {
		m.Health.Path = DefaultHealthPath
	}
	if m.Logging.Level == "" {
		m.Logging.Level = LogLevelInfo
	}
	if m.Logging.Format == "" {
		m.Logging.Format = LogFormatText
	}
}
