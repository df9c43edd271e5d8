package main

import (
	"net/url"

	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/auth"
	"github.com/hivetools/hivectl/pkg/config"
	"github.com/hivetools/hivectl/pkg/logging"
)

var loginCmdDef = cli.Command{
	Name:      "login",
	Usage:     "Log into a hive cloud installation",
	ArgsUsage: "<url>",
	Description: heredoc.Doc(`
		Discovers the instance's identity provider, opens your browser for the
		interactive authentication, and stores the resulting token record.

		Any previously stored configuration for this CLI is overwritten.
	`),
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "The hive cloud instance url. Alternative to the positional argument.",
		},
	},
	Action: util.ChainCmdMiddleware(cmdLogin,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

// Errors:
//
//    - hivectl-error-validation -- the url argument is missing or malformed
//    - hivectl-error-transport -- the instance is unreachable
//    - hivectl-error-server -- the instance rejected the discovery request
//    - hivectl-error-auth -- the interactive flow failed
//    - hivectl-error-config -- the config file location cannot be determined
//    - hivectl-error-io -- the config could not be persisted
func cmdLogin(c *cli.Context) error {
	raw := c.Args().First()
	if raw == "" {
		raw = c.String("url")
	}
	if raw == "" {
		return hiveapi.ErrorValidation("missing url; usage: hivectl login <url>")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return hiveapi.ErrorValidation("the url must be absolute, with an http or https scheme")
	}

	path, err := config.ResolvePath(c.String("config"))
	if err != nil {
		return err
	}

	flow := &auth.LoginFlow{}
	cfg, err := flow.Run(c.Context, raw)
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("Successfully authenticated to %s", cfg.Registry)
	return nil
}
