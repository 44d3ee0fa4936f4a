package clicommand

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/oleiade/reflections"
	"github.com/pipelinekit/jenkins-provisioner/jobconfig"
	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/pipelinekit/jenkins-provisioner/provision"
	"github.com/urfave/cli"
)

// GlobalConfig is embedded in every command's config.
type GlobalConfig struct {
	Config    string `cli:"config"`
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

// JenkinsConfig is the connection to a Jenkins controller.
type JenkinsConfig struct {
	JenkinsURL    string        `cli:"jenkins-url" label:"Jenkins URL" validate:"required"`
	Username      string        `cli:"username" validate:"required"`
	Password      string        `cli:"password" label:"password or API token" validate:"required"`
	Timeout       time.Duration `cli:"timeout"`
	SubmitTimeout time.Duration `cli:"submit-timeout"`
	NoHTTP2       bool          `cli:"no-http2"`
	DebugHTTP     bool          `cli:"debug-http"`
	TraceHTTP     bool          `cli:"trace-http"`
}

// DocumentConfig describes the job configuration document.
type DocumentConfig struct {
	GitRepoURL          string `cli:"git-repo-url"`
	GitBranch           string `cli:"git-branch"`
	JenkinsfilePath     string `cli:"jenkinsfile-path"`
	CredentialsID       string `cli:"credentials-id"`
	ConfigXMLPath       string `cli:"config-xml-path" normalize:"filepath"`
	TemplateEnv         bool   `cli:"template-env"`
	Description         string `cli:"description"`
	LightweightCheckout bool   `cli:"lightweight-checkout"`
}

var ConfigFlag = cli.StringFlag{
	Name:   "config",
	Usage:  "Path to a YAML config file whose keys are flag names",
	EnvVar: "JENKINS_PROVISIONER_CONFIG",
}

var DebugFlag = cli.BoolFlag{
	Name:   "debug",
	Usage:  "Enable debug mode. Synonym for `--log-level debug`",
	EnvVar: "JENKINS_PROVISIONER_DEBUG",
}

var LogLevelFlag = cli.StringFlag{
	Name:   "log-level",
	Value:  "notice",
	Usage:  "Set the log level, one of: debug, notice, info, warn, error, fatal",
	EnvVar: "JENKINS_PROVISIONER_LOG_LEVEL",
}

var LogFormatFlag = cli.StringFlag{
	Name:   "log-format",
	Value:  "text",
	Usage:  "The format to use for log output, one of: text, json",
	EnvVar: "JENKINS_PROVISIONER_LOG_FORMAT",
}

var NoColorFlag = cli.BoolFlag{
	Name:   "no-color",
	Usage:  "Don't show colors in logging",
	EnvVar: "JENKINS_PROVISIONER_NO_COLOR",
}

var globalFlags = []cli.Flag{
	ConfigFlag,
	DebugFlag,
	LogLevelFlag,
	LogFormatFlag,
	NoColorFlag,
}

var jenkinsFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "jenkins-url",
		Usage:  "Root URL of the Jenkins controller, for example https://jenkins.example.com",
		EnvVar: "JENKINS_URL",
	},
	cli.StringFlag{
		Name:   "username",
		Usage:  "Jenkins user name",
		EnvVar: "JENKINS_USER",
	},
	cli.StringFlag{
		Name:   "password",
		Usage:  "Jenkins password or API token",
		EnvVar: "JENKINS_API_TOKEN",
	},
	cli.DurationFlag{
		Name:   "timeout",
		Value:  provision.DefaultTimeout,
		Usage:  "Timeout for status checks and build triggers",
		EnvVar: "JENKINS_PROVISIONER_TIMEOUT",
	},
	cli.DurationFlag{
		Name:   "submit-timeout",
		Value:  provision.DefaultSubmitTimeout,
		Usage:  "Timeout for creating or updating the job",
		EnvVar: "JENKINS_PROVISIONER_SUBMIT_TIMEOUT",
	},
	cli.BoolFlag{
		Name:   "no-http2",
		Usage:  "Disable HTTP2 when communicating with Jenkins",
		EnvVar: "JENKINS_PROVISIONER_NO_HTTP2",
	},
	cli.BoolFlag{
		Name:   "debug-http",
		Usage:  "Enable HTTP debug mode, which dumps all request and response bodies to the log",
		EnvVar: "JENKINS_PROVISIONER_DEBUG_HTTP",
	},
	cli.BoolFlag{
		Name:   "trace-http",
		Usage:  "Log timings for each HTTP request",
		EnvVar: "JENKINS_PROVISIONER_TRACE_HTTP",
	},
}

var documentFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "git-repo-url",
		Usage:  "URL of the Git repository holding the Jenkinsfile",
		EnvVar: "JENKINS_PROVISIONER_GIT_REPO_URL",
	},
	cli.StringFlag{
		Name:   "git-branch",
		Value:  jobconfig.DefaultBranch,
		Usage:  "Branch specifier to build",
		EnvVar: "JENKINS_PROVISIONER_GIT_BRANCH",
	},
	cli.StringFlag{
		Name:   "jenkinsfile-path",
		Value:  jobconfig.DefaultScriptPath,
		Usage:  "Path of the Jenkinsfile inside the repository",
		EnvVar: "JENKINS_PROVISIONER_JENKINSFILE_PATH",
	},
	cli.StringFlag{
		Name:   "credentials-id",
		Usage:  "ID of the Jenkins credentials used to check out the repository",
		EnvVar: "JENKINS_PROVISIONER_CREDENTIALS_ID",
	},
	cli.StringFlag{
		Name:   "config-xml-path",
		Value:  jobconfig.DefaultTemplatePath,
		Usage:  "Job configuration template. A minimal configuration is generated when it doesn't exist",
		EnvVar: "JENKINS_PROVISIONER_CONFIG_XML_PATH",
	},
	cli.BoolFlag{
		Name:   "template-env",
		Usage:  "Expand ${VAR} references in the template from the environment",
		EnvVar: "JENKINS_PROVISIONER_TEMPLATE_ENV",
	},
	cli.StringFlag{
		Name:   "description",
		Usage:  "Job description, used when generating a configuration",
		EnvVar: "JENKINS_PROVISIONER_DESCRIPTION",
	},
	cli.BoolFlag{
		Name:   "lightweight-checkout",
		Usage:  "Fetch only the Jenkinsfile instead of the whole repository, used when generating a configuration",
		EnvVar: "JENKINS_PROVISIONER_LIGHTWEIGHT_CHECKOUT",
	},
}

// DefaultConfigFilePaths are searched in order when --config isn't given.
func DefaultConfigFilePaths() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`$USERPROFILE\.jenkins-provisioner\config.yml`,
			`$PROGRAMDATA\jenkins-provisioner\config.yml`,
		}
	}
	return []string{
		"$HOME/.jenkins-provisioner/config.yml",
		"/etc/jenkins-provisioner/config.yml",
	}
}

// CreateLogger builds the logger described by the global fields of cfg,
// writing to w.
func CreateLogger(w io.Writer, cfg any) (logger.Logger, error) {
	format, _ := reflections.GetField(cfg, "LogFormat")

	var printer logger.Printer
	switch format {
	case "", "text":
		tp := logger.NewTextPrinter(w)
		if noColor, err := reflections.GetField(cfg, "NoColor"); err == nil && noColor == true {
			tp.Colors = false
		}
		// Colors only make sense on the real terminal.
		if w != os.Stderr && w != os.Stdout {
			tp.Colors = false
		}
		printer = tp
	case "json":
		printer = logger.NewJSONPrinter(w)
	default:
		return nil, fmt.Errorf("invalid log format %q, must be one of: text, json", format)
	}

	l := logger.NewConsoleLogger(printer, os.Exit)

	if level, err := reflections.GetField(cfg, "LogLevel"); err == nil && level != "" {
		lvl, err := logger.LevelFromString(fmt.Sprint(level))
		if err != nil {
			return nil, err
		}
		l.SetLevel(lvl)
	}

	if debug, err := reflections.GetField(cfg, "Debug"); err == nil && debug == true {
		l.SetLevel(logger.DEBUG)
	}

	return l, nil
}
