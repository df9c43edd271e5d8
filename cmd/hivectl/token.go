package main

import (
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/pkg/logging"
)

var tokenCmdDef = cli.Command{
	Name:  "token",
	Usage: "Print a valid bearer token for the registry",
	Action: util.ChainCmdMiddleware(cmdToken,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

// Errors:
//
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-io -- the refreshed token could not be persisted
func cmdToken(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := ensureValidToken(c, cfg, path); err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("%s", cfg.Token.AccessToken)
	return nil
}
