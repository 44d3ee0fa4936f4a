package clicommand

import "github.com/urfave/cli"

var JenkinsProvisionerCommands = []cli.Command{
	ProvisionCommand,
	RenderCommand,
}
