package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"binance-fapi/internal/config"
	"binance-fapi/pkg/exchange/binance"
)

// ConfigSummaryLines describes the loaded config. Credentials are reported
// as present or absent, never printed.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Log: mode=%s level=%s", orDefault(cfg.Log.Mode, "console"), orDefault(cfg.Log.Level, "info")),
		fmt.Sprintf("Retry: max=%d backoff=%s..%s", cfg.Retry.MaxRetries, cfg.Retry.InitialBackoff, cfg.Retry.MaxBackoff),
		sectionLine("Exchange config", cfg.Exchange),
		fmt.Sprintf("Order journal: %s", orDefault(cfg.JournalDir, "disabled")),
	}
	if ex := cfg.Exchange.Value; ex != nil {
		lines = append(lines,
			fmt.Sprintf("Endpoint: %s", endpointLine(ex)),
			fmt.Sprintf("Credentials: %s", presence(ex.HasCredentials())),
			fmt.Sprintf("recvWindow: %s", recvWindowLine(ex.RecvWindow)),
		)
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func endpointLine(ex *binance.Config) string {
	switch {
	case ex.BaseURL != "":
		return ex.BaseURL
	case ex.Testnet:
		return "testnet"
	default:
		return "mainnet"
	}
}

func recvWindowLine(ms int64) string {
	if ms == 0 {
		return "exchange default"
	}
	return fmt.Sprintf("%dms", ms)
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func sectionLine[T any](name string, section config.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
