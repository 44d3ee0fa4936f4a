package main

import (
	"bytes"
	"testing"

	"github.com/pipelinekit/jenkins-provisioner/clicommand"
	"github.com/pipelinekit/jenkins-provisioner/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppCommands(t *testing.T) {
	app := newApp()

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"provision", "render"}, names)
	assert.Equal(t, version.FullVersion(), app.Version)
}

func TestAppWithoutCommandShowsHelp(t *testing.T) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	err := app.Run([]string{"jenkins-provisioner"})
	require.Error(t, err)
	assert.ErrorIs(t, err, clicommand.NewSilentExitError(1))
	assert.Contains(t, out.String(), "provision")
	assert.Contains(t, out.String(), "render")
}

func TestAppVersion(t *testing.T) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	require.NoError(t, app.Run([]string{"jenkins-provisioner", "--version"}))
	assert.Equal(t, "jenkins-provisioner version "+version.FullVersion()+"\n", out.String())
}
