package cliconfig

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

type testConfig struct {
	Config      string        `cli:"config"`
	JenkinsURL  string        `cli:"jenkins-url" label:"Jenkins URL" validate:"required"`
	JobName     string        `cli:"job-name" validate:"required"`
	Branch      string        `cli:"git-branch"`
	Template    string        `cli:"config-xml-path" normalize:"filepath"`
	Trigger     bool          `cli:"trigger-build"`
	BuildParams []string      `cli:"build-param" normalize:"list"`
	Timeout     time.Duration `cli:"timeout"`
}

// testFlags returns fresh flags; slice flags keep their values in a shared
// *cli.StringSlice.
func testFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "config"},
		cli.StringFlag{Name: "jenkins-url", EnvVar: "TEST_JENKINS_URL"},
		cli.StringFlag{Name: "job-name"},
		cli.StringFlag{Name: "git-branch", Value: "*/master"},
		cli.StringFlag{Name: "config-xml-path", Value: "jenkins-job-config.xml"},
		cli.BoolFlag{Name: "trigger-build"},
		cli.StringSliceFlag{Name: "build-param", Value: &cli.StringSlice{}},
		cli.DurationFlag{Name: "timeout", Value: 10 * time.Second},
	}
}

func newTestContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()

	flags := testFlags()
	set := flag.NewFlagSet("provision", flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))

	app := cli.NewApp()
	app.Name = "jenkins-provisioner"
	c := cli.NewContext(app, set, nil)
	c.Command = cli.Command{Name: "provision", Flags: flags}
	return c
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoaderFlagsAndDefaults(t *testing.T) {
	cfg := testConfig{}
	loader := Loader{
		CLI:    newTestContext(t, "--jenkins-url", "https://jenkins.example.com", "--job-name", "deploy", "--build-param", "A=1,B=2", "--build-param", "C=3"),
		Config: &cfg,
	}

	warnings, err := loader.Load()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Nil(t, loader.File)

	cwd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "https://jenkins.example.com", cfg.JenkinsURL)
	assert.Equal(t, "deploy", cfg.JobName)
	assert.Equal(t, "*/master", cfg.Branch)
	assert.Equal(t, filepath.Join(cwd, "jenkins-job-config.xml"), cfg.Template)
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, cfg.BuildParams)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.False(t, cfg.Trigger)
}

func TestLoaderRequiredFieldUsesLabel(t *testing.T) {
	cfg := testConfig{}
	loader := Loader{CLI: newTestContext(t, "--job-name", "deploy"), Config: &cfg}

	_, err := loader.Load()
	require.Error(t, err)
	assert.Equal(t, "Missing Jenkins URL. See: `jenkins-provisioner provision --help`", err.Error())
}

func TestLoaderEnvironmentVariable(t *testing.T) {
	t.Setenv("TEST_JENKINS_URL", "https://env.example.com")

	cfg := testConfig{}
	loader := Loader{CLI: newTestContext(t, "--job-name", "deploy"), Config: &cfg}

	_, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.JenkinsURL)
}

func TestLoaderConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
jenkins-url: https://file.example.com
job-name: from-file
git-branch: "*/main"
trigger-build: true
timeout: 45s
build-param:
  - DEPLOY_ENV=staging
  - REGION=eu
`)

	cfg := testConfig{}
	loader := Loader{
		CLI:    newTestContext(t, "--config", path, "--job-name", "from-flag"),
		Config: &cfg,
	}

	warnings, err := loader.Load()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, loader.File)
	assert.Equal(t, path, loader.File.Path)

	assert.Equal(t, "https://file.example.com", cfg.JenkinsURL)
	assert.Equal(t, "from-flag", cfg.JobName, "flags beat the config file")
	assert.Equal(t, "*/main", cfg.Branch)
	assert.True(t, cfg.Trigger)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"DEPLOY_ENV=staging", "REGION=eu"}, cfg.BuildParams)
}

func TestLoaderDefaultConfigFilePaths(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "jenkins-url: https://default.example.com\njob-name: deploy\n")

	cfg := testConfig{}
	loader := Loader{
		CLI:                    newTestContext(t),
		Config:                 &cfg,
		DefaultConfigFilePaths: []string{filepath.Join(dir, "missing.yml"), path},
	}

	_, err := loader.Load()
	require.NoError(t, err)
	require.NotNil(t, loader.File)
	assert.Equal(t, path, loader.File.Path)
	assert.Equal(t, "https://default.example.com", cfg.JenkinsURL)
}

func TestLoaderMissingExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yml")

	cfg := testConfig{}
	loader := Loader{CLI: newTestContext(t, "--config", path), Config: &cfg}

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a configuration file could not be found at")
}

func TestLoaderWarnsAboutUnknownOptions(t *testing.T) {
	path := writeConfigFile(t, "jenkins-url: https://jenkins.example.com\njob-name: deploy\njob-nmae: typo\n")

	cfg := testConfig{}
	loader := Loader{CLI: newTestContext(t, "--config", path), Config: &cfg}

	warnings, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{`Unknown option "job-nmae" in config file ` + path}, warnings)
}

func TestLoaderBadConfigFileValue(t *testing.T) {
	path := writeConfigFile(t, "jenkins-url: https://jenkins.example.com\njob-name: deploy\ntimeout: soon\n")

	cfg := testConfig{}
	loader := Loader{CLI: newTestContext(t, "--config", path), Config: &cfg}

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file option timeout")
}
