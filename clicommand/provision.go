package clicommand

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/buildkite/interpolate"
	"github.com/pipelinekit/jenkins-provisioner/api"
	"github.com/pipelinekit/jenkins-provisioner/cliconfig"
	"github.com/pipelinekit/jenkins-provisioner/jobconfig"
	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/pipelinekit/jenkins-provisioner/prompt"
	"github.com/pipelinekit/jenkins-provisioner/provision"
	"github.com/urfave/cli"
)

const provisionHelpDescription = `Usage:

    jenkins-provisioner provision --jenkins-url <url> --username <user> --password <token> --job-name <name> [options...]

Description:

Creates a Jenkins pipeline job, or updates it after asking for confirmation
when it already exists, then optionally triggers a build.

The job configuration is read from --config-xml-path, with the repository
URL and credentials ID markers replaced. When that file doesn't exist, a
minimal pipeline configuration is generated instead.

Job names containing "/" are created inside the named folders, which must
already exist.

Example:

    $ jenkins-provisioner provision \
        --jenkins-url https://jenkins.example.com \
        --username deployer --password "$JENKINS_API_TOKEN" \
        --job-name team/deploy \
        --git-repo-url https://github.com/example/app.git \
        --credentials-id github-deploy-key \
        --trigger-build --build-param DEPLOY_ENV=staging`

type ProvisionConfig struct {
	GlobalConfig
	JenkinsConfig
	DocumentConfig

	JobName      string   `cli:"job-name" label:"job name" validate:"required"`
	TriggerBuild bool     `cli:"trigger-build"`
	BuildParams  []string `cli:"build-param"`
	Yes          bool     `cli:"yes"`
}

var ProvisionCommand = cli.Command{
	Name:        "provision",
	Usage:       "Create or update a Jenkins pipeline job",
	Description: provisionHelpDescription,
	Flags: slices.Concat(
		[]cli.Flag{
			cli.StringFlag{
				Name:   "job-name",
				Usage:  "Name of the job. Use \"folder/name\" for a job inside a folder",
				EnvVar: "JENKINS_JOB_NAME",
			},
			cli.BoolFlag{
				Name:   "trigger-build",
				Usage:  "Trigger a build once the job is saved, without asking",
				EnvVar: "JENKINS_PROVISIONER_TRIGGER_BUILD",
			},
			cli.StringSliceFlag{
				Name:   "build-param",
				Value:  &cli.StringSlice{},
				Usage:  "A KEY=VALUE build parameter. Can be given multiple times",
				EnvVar: "JENKINS_PROVISIONER_BUILD_PARAM",
			},
			cli.BoolFlag{
				Name:   "yes",
				Usage:  "Update an existing job without asking",
				EnvVar: "JENKINS_PROVISIONER_YES",
			},
		},
		jenkinsFlags,
		documentFlags,
		globalFlags,
	),
	Action: NewConfigAndLogger(&Action[ProvisionConfig]{
		Action: func(ctx context.Context, c *cli.Context, l logger.Logger, _ cliconfig.Loader, cfg *ProvisionConfig) error {
			params, err := parseBuildParams(cfg.BuildParams)
			if err != nil {
				return NewExitError(1, err)
			}

			client := api.NewClient(l, api.Config{
				Endpoint:     cfg.JenkinsURL,
				Username:     cfg.Username,
				Password:     cfg.Password,
				DisableHTTP2: cfg.NoHTTP2,
				DebugHTTP:    cfg.DebugHTTP,
				TraceHTTP:    cfg.TraceHTTP,
			})

			p := provision.New(l, client, newConfirmer(c), provision.Config{
				JobName:       cfg.JobName,
				Document:      documentOptions(cfg.DocumentConfig),
				TriggerBuild:  cfg.TriggerBuild,
				BuildParams:   params,
				AssumeYes:     cfg.Yes,
				Timeout:       cfg.Timeout,
				SubmitTimeout: cfg.SubmitTimeout,
			})

			err = p.Run(ctx)
			switch {
			case err == nil:
				return nil
			case errors.Is(err, provision.ErrDeclined):
				return nil
			default:
				return NewExitError(1, err)
			}
		},
	}),
}

// newConfirmer returns what asks the user questions. Tests replace it.
var newConfirmer = func(c *cli.Context) prompt.Confirmer {
	t := prompt.NewTerminal()
	t.Out = c.App.Writer
	return t
}

func documentOptions(cfg DocumentConfig) jobconfig.Options {
	opts := jobconfig.Options{
		TemplatePath:  cfg.ConfigXMLPath,
		RepoURL:       cfg.GitRepoURL,
		CredentialsID: cfg.CredentialsID,
		Branch:        cfg.GitBranch,
		ScriptPath:    cfg.JenkinsfilePath,
		Description:   cfg.Description,
		Lightweight:   cfg.LightweightCheckout,
	}
	if cfg.TemplateEnv {
		opts.Env = interpolate.NewSliceEnv(os.Environ())
	}
	return opts
}

// parseBuildParams turns KEY=VALUE pairs into a map. The value may be empty
// and may itself contain "=".
func parseBuildParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid build parameter %q, expected KEY=VALUE", pair)
		}
		params[key] = value
	}
	return params, nil
}
