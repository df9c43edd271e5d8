package main

import (
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/pkg/logging"
)

var versionCmdDef = cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Action: util.ChainCmdMiddleware(cmdVersion,
		util.CmdMiddlewareLogging,
	),
}

func cmdVersion(c *cli.Context) error {
	logger := logging.Ctx(c.Context)
	logger.Out("hivectl %s", VERSION)
	// The registry in use is useful context; its absence is not an error.
	if cfg, _, err := loadConfig(c); err == nil {
		logger.Out("registry: %s", cfg.Registry)
	}
	return nil
}
