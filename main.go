// Command jenkins-provisioner creates or updates Jenkins pipeline jobs from
// the command line.
package main

import (
	"fmt"
	"os"

	"github.com/pipelinekit/jenkins-provisioner/clicommand"
	"github.com/pipelinekit/jenkins-provisioner/version"
	"github.com/urfave/cli"
)

const appHelpTemplate = `Usage:

  {{.Name}} <command> [options...]

Available commands are:

  {{range .Commands}}{{.Name}}{{with .ShortName}}, {{.}}{{end}}{{ "\t" }}{{.Usage}}
  {{end}}
Use "{{.Name}} <command> --help" for more information about a command.

`

func newApp() *cli.App {
	cli.AppHelpTemplate = appHelpTemplate
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "%s version %s\n", c.App.Name, c.App.Version)
	}

	app := cli.NewApp()
	app.Name = "jenkins-provisioner"
	app.Usage = "Create or update Jenkins pipeline jobs"
	app.Version = version.FullVersion()
	app.Commands = clicommand.JenkinsProvisionerCommands
	app.ErrWriter = os.Stderr

	// When no sub command is used
	app.Action = func(c *cli.Context) error {
		_ = cli.ShowAppHelp(c)
		return clicommand.NewSilentExitError(1)
	}

	// When a sub command can't be found
	app.CommandNotFound = func(c *cli.Context, command string) {
		cli.ShowAppHelp(c) //nolint:errcheck // exits below regardless
		fmt.Fprintf(c.App.ErrWriter, "\n%s: unknown command %q\n", c.App.Name, command)
		os.Exit(1)
	}

	return app
}

func main() {
	err := newApp().Run(os.Args)
	os.Exit(clicommand.PrintMessageAndReturnExitCode(err))
}
