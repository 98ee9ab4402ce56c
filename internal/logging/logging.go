// Package logging builds bqmd's process-wide *zap.Logger, the same
// constructor-injected logger shape the teacher's services take
// (service.NewLumenService(cfg, logger)) rather than a package-level
// global.
package logging

import "go.uber.org/zap"

// New builds a logger for level ("debug" gets development mode: caller
// info, stack traces on warn+, console encoding; anything else gets the
// production JSON encoder), matching config.ServerConfig.LogLevel.
func New(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	return cfg.Build()
}
