package cliconfig

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pipelinekit/jenkins-provisioner/internal/osutil"
	"gopkg.in/yaml.v3"
)

// File is a YAML config file. Its top level is a mapping from flag names to
// values:
//
//	jenkins-url: https://jenkins.example.com
//	git-branch: "*/main"
//	trigger-build: true
//	build-param:
//	  - DEPLOY_ENV=staging
type File struct {
	// The path to the file
	Path string

	// Values loaded from the file, keyed by flag name. Sequences are joined
	// with commas.
	Config map[string]string
}

func (f *File) Load() error {
	f.Config = map[string]string{}

	absolutePath, err := f.AbsolutePath()
	if err != nil {
		return fmt.Errorf("getting absolute path for %s: %w", f.Path, err)
	}

	data, err := os.ReadFile(absolutePath)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", f.Path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", f.Path, err)
	}

	for key, value := range raw {
		s, err := scalarString(value)
		if err != nil {
			return fmt.Errorf("parsing %s: option %q: %w", f.Path, key, err)
		}
		f.Config[key] = s
	}

	return nil
}

// Keys returns the option names in the file, sorted.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.Config))
	for k := range f.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f File) AbsolutePath() (string, error) {
	return osutil.NormalizeFilePath(f.Path)
}

func (f File) Exists() bool {
	absolutePath, err := f.AbsolutePath()
	if err != nil {
		return false
	}
	return osutil.FileExists(absolutePath)
}

func scalarString(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := scalarString(item)
			if err != nil {
				return "", err
			}
			if _, isList := item.([]any); isList {
				return "", fmt.Errorf("nested lists are not supported")
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
