// Package autoload initialises the global logger from the LOG_* environment
// on import, so binaries only need a blank import before any logging happens.
package autoload

import (
	configx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/config"
	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
