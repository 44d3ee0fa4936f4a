// Package cliconfig fills tagged config structs from command line flags,
// environment variables and an optional YAML config file.
//
// Fields are bound with struct tags:
//
//	cli:"job-name"          the flag (and config file key) to read
//	normalize:"filepath"    expand ~ and $VARS, make absolute
//	normalize:"list"        split comma separated slice entries
//	validate:"required"     fail when the value is empty
//	label:"Jenkins URL"     name used in validation errors
package cliconfig

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/oleiade/reflections"
	"github.com/pipelinekit/jenkins-provisioner/internal/osutil"
	"github.com/urfave/cli"
)

type Loader struct {
	// The context that is passed when using a urfave/cli action
	CLI *cli.Context

	// The struct that the config values will be loaded into
	Config any

	// A slice of paths to files that should be used as config files
	DefaultConfigFilePaths []string

	// The file that was used when loading this configuration
	File *File
}

// Load fills Config. Precedence is: flag or environment variable, then the
// config file, then the flag's default.
func (l *Loader) Load() (warnings []string, err error) {
	if err := l.findFile(); err != nil {
		return nil, err
	}

	if l.File != nil {
		if err := l.File.Load(); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	fields, err := reflections.FieldsDeep(l.Config)
	if err != nil {
		return nil, fmt.Errorf("listing config fields: %w", err)
	}

	var known []string
	for _, fieldName := range fields {
		cliName, _ := reflections.GetFieldTag(l.Config, fieldName, "cli")
		if cliName != "" {
			known = append(known, cliName)
			if err := l.setFieldValueFromCLI(fieldName, cliName); err != nil {
				return warnings, fmt.Errorf("setting config field %s: %w", fieldName, err)
			}
		}

		if normalization, _ := reflections.GetFieldTag(l.Config, fieldName, "normalize"); normalization != "" {
			if err := l.normalizeField(fieldName, normalization); err != nil {
				return warnings, fmt.Errorf("normalizing config field %s: %w", fieldName, err)
			}
		}

		if rules, _ := reflections.GetFieldTag(l.Config, fieldName, "validate"); rules != "" {
			label, _ := reflections.GetFieldTag(l.Config, fieldName, "label")
			if label == "" {
				label = cliName
			}
			if label == "" {
				label = fieldName
			}
			if err := l.validateField(fieldName, label, rules); err != nil {
				return warnings, err
			}
		}
	}

	if l.File != nil {
		for _, key := range l.File.Keys() {
			if !slices.Contains(known, key) {
				warnings = append(warnings,
					fmt.Sprintf("Unknown option %q in config file %s", key, l.File.Path))
			}
		}
	}

	return warnings, nil
}

// findFile picks the config file: the one passed with --config, which must
// exist, or else the first default path that does.
func (l *Loader) findFile() error {
	if path := l.CLI.String("config"); path != "" {
		file := File{Path: path}
		if !file.Exists() {
			absolutePath, _ := file.AbsolutePath()
			return fmt.Errorf("a configuration file could not be found at: %q", absolutePath)
		}
		l.File = &file
		return nil
	}

	for _, path := range l.DefaultConfigFilePaths {
		file := File{Path: path}
		if file.Exists() {
			l.File = &file
			return nil
		}
	}
	return nil
}

func (l Loader) setFieldValueFromCLI(fieldName, cliName string) error {
	fieldKind, err := reflections.GetFieldKind(l.Config, fieldName)
	if err != nil {
		return fmt.Errorf("getting the kind of struct field %q: %w", fieldName, err)
	}
	fieldType, err := reflections.GetFieldType(l.Config, fieldName)
	if err != nil {
		return fmt.Errorf("getting the type of struct field %q: %w", fieldName, err)
	}

	var value any

	if l.File != nil {
		if raw, ok := l.File.Config[cliName]; ok {
			value, err = convertFileValue(raw, fieldKind, fieldType)
			if err != nil {
				return fmt.Errorf("config file option %s: %w", cliName, err)
			}
		}
	}

	// A flag given on the command line or through its environment variable
	// beats the config file.
	if value == nil || l.cliValueIsSet(cliName) {
		switch fieldKind {
		case reflect.String:
			value = l.CLI.String(cliName)
		case reflect.Slice:
			value = l.CLI.StringSlice(cliName)
		case reflect.Bool:
			value = l.CLI.Bool(cliName)
		case reflect.Int:
			value = l.CLI.Int(cliName)
		case reflect.Int64:
			switch fieldType {
			case "int64":
				value = l.CLI.Int64(cliName)
			case "time.Duration":
				value = l.CLI.Duration(cliName)
			default:
				return fmt.Errorf("unsupported field type %s for kind int64", fieldType)
			}
		default:
			return fmt.Errorf("unable to handle type: %s", fieldKind)
		}
	}

	if err := reflections.SetField(l.Config, fieldName, value); err != nil {
		return fmt.Errorf("setting value field %q to %q: %w", fieldName, value, err)
	}
	return nil
}

func convertFileValue(raw string, kind reflect.Kind, fieldType string) (any, error) {
	switch kind {
	case reflect.String:
		return raw, nil
	case reflect.Slice:
		return strings.Split(raw, ","), nil
	case reflect.Bool:
		return strconv.ParseBool(raw)
	case reflect.Int:
		return strconv.Atoi(raw)
	case reflect.Int64:
		switch fieldType {
		case "int64":
			return strconv.ParseInt(raw, 10, 64)
		case "time.Duration":
			return time.ParseDuration(raw)
		}
		return nil, fmt.Errorf("unsupported field type %s for kind int64", fieldType)
	}
	return nil, fmt.Errorf("unable to convert string to type %s", kind)
}

func (l Loader) Errorf(format string, v ...any) error {
	suffix := fmt.Sprintf(" See: `%s %s --help`", l.CLI.App.Name, l.CLI.Command.Name)

	return fmt.Errorf(format+suffix, v...)
}

func (l Loader) cliValueIsSet(cliName string) bool {
	if l.CLI.IsSet(cliName) {
		return true
	}

	// cli.Context#IsSet only checks to see if the flag was set on the command
	// line, not via the environment, so look up the flag's EnvVar.
	for _, flag := range l.CLI.Command.Flags {
		name, _ := reflections.GetField(flag, "Name")
		envVar, _ := reflections.GetField(flag, "EnvVar")
		if name != cliName {
			continue
		}
		envVarStr, ok := envVar.(string)
		if !ok || envVarStr == "" {
			return false
		}
		for env := range strings.SplitSeq(envVarStr, ",") {
			if os.Getenv(strings.TrimSpace(env)) != "" {
				return true
			}
		}
	}

	return false
}

func (l Loader) fieldValueIsEmpty(fieldName string) bool {
	value, _ := reflections.GetField(l.Config, fieldName)
	fieldKind, _ := reflections.GetFieldKind(l.Config, fieldName)

	switch fieldKind {
	case reflect.String:
		return value == ""
	case reflect.Slice:
		return reflect.ValueOf(value).Len() == 0
	case reflect.Bool:
		return value == false
	case reflect.Int:
		return value == 0
	case reflect.Int64:
		return reflect.ValueOf(value).Int() == 0
	default:
		panic(fmt.Sprintf("Can't determine empty-ness for field type %s", fieldKind))
	}
}

func (l Loader) validateField(fieldName, label, validationRules string) error {
	for rule := range strings.SplitSeq(validationRules, ",") {
		switch rule {
		case "required":
			if l.fieldValueIsEmpty(fieldName) {
				return l.Errorf("Missing %s.", label)
			}

		case "file-exists":
			value, _ := reflections.GetField(l.Config, fieldName)
			if path, ok := value.(string); ok {
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("couldn't find %s located at %s: %w", label, path, err)
				}
			}

		default:
			return fmt.Errorf("unknown config validation rule %q", rule)
		}
	}

	return nil
}

func (l Loader) normalizeField(fieldName, normalization string) error {
	value, _ := reflections.GetField(l.Config, fieldName)
	fieldKind, _ := reflections.GetFieldKind(l.Config, fieldName)

	switch normalization {
	case "filepath":
		if fieldKind != reflect.String {
			return fmt.Errorf("filepath normalization only works on string fields")
		}
		path, _ := value.(string)
		normalized, err := osutil.NormalizeFilePath(path)
		if err != nil {
			return err
		}
		return reflections.SetField(l.Config, fieldName, normalized)

	case "list":
		if fieldKind != reflect.Slice {
			return fmt.Errorf("list normalization only works on slice fields")
		}
		items, _ := value.([]string)
		normalized := []string{}
		for _, item := range items {
			for part := range strings.SplitSeq(item, ",") {
				if part = strings.TrimSpace(part); part != "" {
					normalized = append(normalized, part)
				}
			}
		}
		return reflections.SetField(l.Config, fieldName, normalized)

	default:
		return fmt.Errorf("unknown normalization %q", normalization)
	}
}
