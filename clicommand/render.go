package clicommand

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/pipelinekit/jenkins-provisioner/cliconfig"
	"github.com/pipelinekit/jenkins-provisioner/jobconfig"
	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/urfave/cli"
)

const renderHelpDescription = `Usage:

    jenkins-provisioner render [options...]

Description:

Prints the job configuration that provision would send, without contacting
Jenkins. Useful for reviewing a template or keeping the generated
configuration under version control.

Example:

    $ jenkins-provisioner render --git-repo-url https://github.com/example/app.git --output config.xml`

type RenderConfig struct {
	GlobalConfig
	DocumentConfig

	Output string `cli:"output" normalize:"filepath"`
}

var RenderCommand = cli.Command{
	Name:        "render",
	Usage:       "Print the job configuration without contacting Jenkins",
	Description: renderHelpDescription,
	Flags: slices.Concat(
		[]cli.Flag{
			cli.StringFlag{
				Name:  "output",
				Usage: "Write the configuration to this file instead of stdout",
			},
		},
		documentFlags,
		globalFlags,
	),
	Action: NewConfigAndLogger(&Action[RenderConfig]{
		Action: func(_ context.Context, c *cli.Context, l logger.Logger, _ cliconfig.Loader, cfg *RenderConfig) error {
			doc, err := jobconfig.Build(l, documentOptions(cfg.DocumentConfig))
			if err != nil {
				return NewExitError(1, err)
			}

			if cfg.Output == "" {
				if _, err := c.App.Writer.Write(doc.XML); err != nil {
					return NewExitError(1, fmt.Errorf("writing configuration: %w", err))
				}
				return nil
			}

			if err := os.WriteFile(cfg.Output, doc.XML, 0o644); err != nil {
				return NewExitError(1, fmt.Errorf("writing configuration: %w", err))
			}
			l.WithFields(
				logger.StringField("source", doc.Source.String()),
				logger.BytesField("size", len(doc.XML)),
			).Info("Wrote job configuration to %s", cfg.Output)
			return nil
		},
	}),
}
