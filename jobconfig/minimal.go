package jobconfig

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// The element and class names below are what Jenkins writes itself for a
// "Pipeline script from SCM" job using the Git plugin.

type flowDefinition struct {
	XMLName          xml.Name   `xml:"flow-definition"`
	Plugin           string     `xml:"plugin,attr"`
	Description      string     `xml:"description"`
	KeepDependencies bool       `xml:"keepDependencies"`
	Definition       definition `xml:"definition"`
	Disabled         bool       `xml:"disabled"`
}

type definition struct {
	Class       string `xml:"class,attr"`
	Plugin      string `xml:"plugin,attr"`
	SCM         gitSCM `xml:"scm"`
	ScriptPath  string `xml:"scriptPath"`
	Lightweight bool   `xml:"lightweight"`
}

type gitSCM struct {
	Class                             string             `xml:"class,attr"`
	Plugin                            string             `xml:"plugin,attr"`
	ConfigVersion                     int                `xml:"configVersion"`
	UserRemoteConfigs                 []userRemoteConfig `xml:"userRemoteConfigs>hudson.plugins.git.UserRemoteConfig"`
	Branches                          []branchSpec       `xml:"branches>hudson.plugins.git.BranchSpec"`
	DoGenerateSubmoduleConfigurations bool               `xml:"doGenerateSubmoduleConfigurations"`
	SubmoduleCfg                      emptyList          `xml:"submoduleCfg"`
}

type userRemoteConfig struct {
	URL           string `xml:"url"`
	CredentialsID string `xml:"credentialsId,omitempty"`
}

type branchSpec struct {
	Name string `xml:"name"`
}

type emptyList struct {
	Class string `xml:"class,attr"`
}

// Minimal generates a pipeline job that checks out RepoURL at Branch and runs
// ScriptPath from it. Without a RepoURL the repository URL marker is used, so
// the document can still be patched later. The credentialsId element is left
// out entirely when no CredentialsID is given.
func Minimal(opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	repoURL := opts.RepoURL
	if repoURL == "" {
		repoURL = RepoURLPlaceholder
	}

	doc := flowDefinition{
		Plugin:      "workflow-job@2.45",
		Description: opts.Description,
		Definition: definition{
			Class:  "org.jenkinsci.plugins.workflow.cps.CpsScmFlowDefinition",
			Plugin: "workflow-cps@2.94",
			SCM: gitSCM{
				Class:         "hudson.plugins.git.GitSCM",
				Plugin:        "git@4.11.3",
				ConfigVersion: 2,
				UserRemoteConfigs: []userRemoteConfig{{
					URL:           repoURL,
					CredentialsID: opts.CredentialsID,
				}},
				Branches:     []branchSpec{{Name: opts.Branch}},
				SubmoduleCfg: emptyList{Class: "empty-list"},
			},
			ScriptPath:  opts.ScriptPath,
			Lightweight: opts.Lightweight,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding job configuration: %w", err)
	}
	buf.WriteString("\n")

	return buf.Bytes(), nil
}
