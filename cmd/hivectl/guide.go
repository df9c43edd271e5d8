package main

import (
	_ "embed"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/pkg/logging"
)

//go:embed guide.md
var guideDocument string

var guideCmdDef = cli.Command{
	Name:  "guide",
	Usage: "Print a short guide to getting started",
	Action: util.ChainCmdMiddleware(cmdGuide,
		util.CmdMiddlewareLogging,
	),
}

func cmdGuide(c *cli.Context) error {
	logger := logging.Ctx(c.Context)
	if f, ok := c.App.Writer.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			if out, err := renderer.Render(guideDocument); err == nil {
				logger.OutRaw(out)
				return nil
			}
		}
		// fall through to plain text on any rendering trouble
	}
	logger.OutRaw(guideDocument)
	return nil
}
