package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments made while canonicalizing a
// configuration.
type NormalizationResult struct {
	Warnings []string
}

// NormalizeConfig canonicalizes enum-like fields, trims user supplied
// strings and de-duplicates safelists in place. It runs before defaults
// so that a blank value after trimming still receives its default.
func NormalizeConfig(cfg *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if cfg == nil {
		return res
	}
	normalizeServer(&cfg.Server)
	normalizeStyles(&cfg.Styles, res)
	cfg.Chat.NATSURL = strings.TrimSpace(cfg.Chat.NATSURL)
	cfg.Chat.Subject = strings.TrimSpace(cfg.Chat.Subject)
	cfg.Contacts.DSN = strings.TrimSpace(cfg.Contacts.DSN)
	cfg.Contacts.ResetInterval = strings.TrimSpace(cfg.Contacts.ResetInterval)
	normalizeMonitoring(&cfg.Monitoring, res)
	return res
}

func normalizeServer(s *ServerConfig) {
	s.StaticDir = strings.TrimSpace(s.StaticDir)
	s.IndicatorDelay = strings.TrimSpace(s.IndicatorDelay)
	s.ReloadHeartbeat = strings.TrimSpace(s.ReloadHeartbeat)
	s.ShutdownTimeout = strings.TrimSpace(s.ShutdownTimeout)
}

func normalizeStyles(s *StylesConfig, res *NormalizationResult) {
	s.Root = strings.TrimSpace(s.Root)
	for i := range s.Targets {
		t := &s.Targets[i]
		if name := strings.ToLower(strings.TrimSpace(t.Name)); name != t.Name {
			res.Warnings = append(res.Warnings, warnChanged(fmt.Sprintf("styles.targets[%d].name", i), t.Name, name))
			t.Name = name
		}
		t.Output = strings.TrimSpace(t.Output)
		for _, dup := range t.Normalize() {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("styles.targets[%d].safelist: removed duplicate %q", i, dup))
		}
	}
}

func normalizeMonitoring(m *MonitoringConfig, res *NormalizationResult) {
	m.Metrics.Path = strings.TrimSpace(m.Metrics.Path)
	m.Health.Path = strings.TrimSpace(m.Health.Path)

	if lvl := NormalizeLogLevel(string(m.Logging.Level)); lvl != "" {
		if m.Logging.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", m.Logging.Level, lvl))
			m.Logging.Level = lvl
		}
	} else if string(m.Logging.Level) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", string(m.Logging.Level), string(LogLevelInfo)))
		m.Logging.Level = LogLevelInfo
	}

	if f := NormalizeLogFormat(string(m.Logging.Format)); f != "" {
		if m.Logging.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", m.Logging.Format, f))
			m.Logging.Format = f
		}
	} else if string(m.Logging.Format) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", string(m.Logging.Format), string(LogFormatText)))
		m.Logging.Format = LogFormatText
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
