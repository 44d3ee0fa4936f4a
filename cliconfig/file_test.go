package cliconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoad(t *testing.T) {
	path := writeConfigFile(t, `# provisioner defaults
jenkins-url: https://jenkins.example.com
username: deployer
trigger-build: false
port: 8080
build-param: [A=1, B=2]
description:
`)

	f := File{Path: path}
	require.True(t, f.Exists())
	require.NoError(t, f.Load())

	want := map[string]string{
		"jenkins-url":   "https://jenkins.example.com",
		"username":      "deployer",
		"trigger-build": "false",
		"port":          "8080",
		"build-param":   "A=1,B=2",
		"description":   "",
	}
	if diff := cmp.Diff(want, f.Config); diff != "" {
		t.Errorf("File.Config diff (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"build-param", "description", "jenkins-url", "port", "trigger-build", "username"}, f.Keys())
}

func TestFileLoadRejectsNestedValues(t *testing.T) {
	path := writeConfigFile(t, "jenkins:\n  url: https://jenkins.example.com\n")

	f := File{Path: path}
	err := f.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `option "jenkins"`)
}

func TestFileLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "jenkins-url: [unterminated\n")

	f := File{Path: path}
	assert.Error(t, f.Load())
}

func TestFileExists(t *testing.T) {
	assert.False(t, File{Path: "/does/not/exist.yml"}.Exists())
}
