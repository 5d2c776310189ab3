package cmd

import (
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

var logger *slog.Logger

// initLogging installs a charm handler behind slog so library packages keep
// logging through the standard interface.
func initLogging() {
	level := charmlog.InfoLevel
	if viper.GetBool("verbose") {
		level = charmlog.DebugLevel
	}

	formatter := charmlog.TextFormatter
	switch viper.GetString("log-format") {
	case "json":
		formatter = charmlog.JSONFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	}

	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Formatter:       formatter,
		Prefix:          "texsynth",
	})

	logger = slog.New(handler)
	slog.SetDefault(logger)
}
