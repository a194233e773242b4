// Package logging configures the process-global zap logger used by
// qrtrctl and, by default, by the qrtr package's Observer/Client.
package logging

import (
	"go.uber.org/zap"
)

// Init installs a production zap logger as the global logger. verbose
// lowers the level to Debug; otherwise Info.
func Init(verbose bool) {
	cfg := zap.NewProductionConfig()
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	zap.ReplaceGlobals(l)
}
