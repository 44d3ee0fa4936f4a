package clicommand

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pipelinekit/jenkins-provisioner/cliconfig"
	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/urfave/cli"
)

type Action[T any] struct {
	Action func(
		ctx context.Context,
		c *cli.Context,
		l logger.Logger,
		loader cliconfig.Loader,
		cfg *T,
	) error
}

// NewConfigAndLogger loads a fresh T from the command line and config file,
// creates the logger it describes and then runs f. The context passed to f
// is cancelled on SIGINT or SIGTERM.
func NewConfigAndLogger[T any](f *Action[T]) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := new(T)

		loader := cliconfig.Loader{
			CLI:                    c,
			Config:                 cfg,
			DefaultConfigFilePaths: DefaultConfigFilePaths(),
		}
		warnings, err := loader.Load()
		if err != nil {
			return NewExitError(1, err)
		}

		l, err := CreateLogger(c.App.ErrWriter, cfg)
		if err != nil {
			return NewExitError(1, err)
		}

		// Now that we have a logger, log out the warnings that loading config generated
		for _, warning := range warnings {
			l.Warn("%s", warning)
		}
		if loader.File != nil {
			l.Debug("Using config file %s", loader.File.Path)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return f.Action(ctx, c, l, loader, cfg)
	}
}
