// Package jobconfig builds the config.xml document of a Jenkins pipeline job,
// either by patching a template file or by generating a minimal one.
package jobconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/buildkite/interpolate"
	"github.com/pipelinekit/jenkins-provisioner/logger"
)

const (
	// Markers a template carries in place of site specific values.
	RepoURLPlaceholder       = "REPLACE_WITH_YOUR_GITHUB_REPO_URL"
	CredentialsIDPlaceholder = "REPLACE_WITH_YOUR_GITHUB_CREDENTIALS_ID"

	DefaultBranch       = "*/master"
	DefaultScriptPath   = "Jenkinsfile"
	DefaultTemplatePath = "jenkins-job-config.xml"
)

// Source records how a Document was produced.
type Source int

const (
	FromTemplate Source = iota
	Generated
)

func (s Source) String() string {
	switch s {
	case FromTemplate:
		return "template"
	case Generated:
		return "generated"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Options are the inputs to Build.
type Options struct {
	// TemplatePath is the template file to patch. Empty, or a path that does
	// not exist, means a minimal document is generated instead.
	TemplatePath string

	RepoURL       string
	CredentialsID string
	Branch        string
	ScriptPath    string

	// Description and Lightweight only apply to generated documents.
	Description string
	Lightweight bool

	// Env, when set, is used to expand ${VAR} references in the template
	// before the placeholders are substituted.
	Env interpolate.Env
}

func (o Options) withDefaults() Options {
	if o.Branch == "" {
		o.Branch = DefaultBranch
	}
	if o.ScriptPath == "" {
		o.ScriptPath = DefaultScriptPath
	}
	return o
}

// Document is a job configuration ready to be sent to Jenkins.
type Document struct {
	XML    []byte
	Source Source

	// TemplatePath is set when Source is FromTemplate.
	TemplatePath string
}

// Build produces the job configuration described by opts. A missing template
// is not an error; a template that exists but cannot be read is.
func Build(l logger.Logger, opts Options) (*Document, error) {
	opts = opts.withDefaults()

	if opts.TemplatePath != "" {
		content, err := os.ReadFile(opts.TemplatePath)
		switch {
		case err == nil:
			l.Info("Reading configuration from: %s", opts.TemplatePath)

			xml, err := Patch(string(content), opts)
			if err != nil {
				return nil, fmt.Errorf("patching template %s: %w", opts.TemplatePath, err)
			}

			return &Document{
				XML:          []byte(xml),
				Source:       FromTemplate,
				TemplatePath: opts.TemplatePath,
			}, nil

		case errors.Is(err, fs.ErrNotExist):
			l.Warn("Config XML file %s not found. Creating minimal pipeline configuration...", opts.TemplatePath)

		default:
			return nil, fmt.Errorf("reading template %s: %w", opts.TemplatePath, err)
		}
	}

	xml, err := Minimal(opts)
	if err != nil {
		return nil, err
	}

	return &Document{XML: xml, Source: Generated}, nil
}
