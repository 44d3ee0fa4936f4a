package jobconfig

import (
	"strings"

	"github.com/buildkite/interpolate"
)

// Patch performs literal placeholder substitution on a template. Each
// substitution only happens when the matching option was overridden:
//
//   - the repository URL marker, when RepoURL is set
//   - the credentials ID marker, when CredentialsID is set
//   - every "*/master", when Branch is not "*/master"
//   - <scriptPath>Jenkinsfile</scriptPath>, when ScriptPath is not "Jenkinsfile"
//
// When opts.Env is set, ${VAR} references are expanded first.
func Patch(template string, opts Options) (string, error) {
	opts = opts.withDefaults()

	content := template
	if opts.Env != nil {
		expanded, err := interpolate.Interpolate(opts.Env, content)
		if err != nil {
			return "", err
		}
		content = expanded
	}

	if opts.RepoURL != "" {
		content = strings.ReplaceAll(content, RepoURLPlaceholder, opts.RepoURL)
	}

	if opts.CredentialsID != "" {
		content = strings.ReplaceAll(content, CredentialsIDPlaceholder, opts.CredentialsID)
	}

	if opts.Branch != DefaultBranch {
		content = strings.ReplaceAll(content, DefaultBranch, opts.Branch)
	}

	if opts.ScriptPath != DefaultScriptPath {
		content = strings.ReplaceAll(content,
			"<scriptPath>"+DefaultScriptPath+"</scriptPath>",
			"<scriptPath>"+opts.ScriptPath+"</scriptPath>",
		)
	}

	return content, nil
}
