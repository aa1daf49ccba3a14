package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"filesmanager/internal/config"
)

const logLevelEnvKey = "LOG_LEVEL"

// levelChoice is a raw log level and where it came from: flag, env, config or default.
type levelChoice struct {
	raw    string
	source string
}

func chooseLogLevel(flagLevel, envLevel, configLevel string) levelChoice {
	for _, candidate := range []levelChoice{
		{raw: flagLevel, source: "flag"},
		{raw: envLevel, source: "env"},
		{raw: configLevel, source: "config"},
	} {
		if strings.TrimSpace(candidate.raw) != "" {
			return candidate
		}
	}
	return levelChoice{source: "default"}
}

// configureLoggerForCLI installs the default slog logger. An invalid flag is an
// error; an invalid env or config value falls back to debug with a warning.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	choice := chooseLogLevel(flagLevel, os.Getenv(logLevelEnvKey), configLevel)
	level, err := parseLogLevel(choice.raw)
	if err == nil {
		slog.SetDefault(newLogger(level))
		return "", nil
	}

	if choice.source == "flag" {
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	}
	slog.SetDefault(newLogger(slog.LevelDebug))
	switch choice.source {
	case "env":
		return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, choice.raw, config.DefaultLogLevel), nil
	case "config":
		return fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", choice.raw, config.DefaultLogLevel), nil
	}
	return "", nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelDebug, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
