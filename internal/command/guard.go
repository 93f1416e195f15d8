package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

func GuardCommand() *cli.Command {
	return &cli.Command{
		Name:      "guard",
		Usage:     "Show what the web app does when the current user opens PATH",
		ArgsUsage: "PATH",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("guard takes exactly one PATH argument")
			}
			e, _ := ready(c)
			path := c.Args().First()

			decision := e.session.Guard(path)
			switch {
			case decision.Wait:
				fmt.Fprintf(c.App.Writer, "%s: wait\n", path)
			case decision.Redirect != "":
				fmt.Fprintf(c.App.Writer, "%s: redirect %s\n", path, decision.Redirect)
			default:
				fmt.Fprintf(c.App.Writer, "%s: allow\n", path)
			}
			return nil
		},
	}
}
