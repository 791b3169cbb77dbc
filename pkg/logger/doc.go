// Package logger builds slog loggers the way the rest of this module expects
// them: structured, configurable from the environment, defaulting to JSON on
// stdout for production and text for development.
//
//	log := logger.New(logger.WithFormat(logger.FormatText), logger.WithLevel(slog.LevelDebug))
//	client := postmark.MustNew(cfg, postmark.WithLogger(log))
package logger
