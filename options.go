package pref

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/npezza93/pref/internal/watch"
)

// Migration transforms the live store to a newer schema. Migrations may
// call any store mutator; they run in ascending version order, each one
// seeing the cumulative effect of the previous ones.
type Migration func(*Store) error

// Options configures a store. The zero value is not usable: either Dir or
// ProjectName must be set so the file location can be derived.
type Options struct {
	// FileName is the config file name without extension. Default "config".
	FileName string

	// FileExtension is the config file extension. Default "json".
	FileExtension string

	// Dir is the directory holding the config file. When set it wins over
	// ProjectName.
	Dir string

	// ProjectName derives the directory from the platform user-config
	// location ({XDG_CONFIG_HOME|~/.config}/{ProjectName}) when Dir is
	// empty.
	ProjectName string

	// Defaults seeds top-level keys that are absent from the persisted
	// document. Persisted values always win over defaults.
	Defaults map[string]any

	// ProjectVersion is the target schema version for migrations.
	ProjectVersion string

	// Migrations maps semantic-version strings to migration functions.
	// Requires ProjectVersion.
	Migrations map[string]Migration

	// Validator, when set, is applied to the document snapshot before
	// every read.
	Validator Validator

	// DisableWatch turns off cross-process change detection.
	DisableWatch bool

	// DebounceInterval is the quiet window after a raw filesystem event
	// before the store re-checks the file. Default 100ms.
	DebounceInterval time.Duration

	// Logger receives store diagnostics. Default is a no-op logger.
	Logger *zerolog.Logger
}

// resolve fills defaults and validates the combination of fields.
func (o Options) resolve() (Options, error) {
	if o.FileName == "" {
		o.FileName = "config"
	}
	if o.FileExtension == "" {
		o.FileExtension = "json"
	}
	if o.Dir == "" {
		if o.ProjectName == "" {
			return o, ErrMissingProject
		}
		o.Dir = filepath.Join(configHome(), o.ProjectName)
	}
	if o.DebounceInterval <= 0 {
		o.DebounceInterval = watch.DefaultDebounce
	}
	if len(o.Migrations) > 0 && o.ProjectVersion == "" {
		return o, fmt.Errorf("%w: Migrations require ProjectVersion", ErrInvalidArgument)
	}
	return o, nil
}

func (o Options) filePath() string {
	return filepath.Join(o.Dir, o.FileName+"."+o.FileExtension)
}

// configHome returns the platform user-config base directory.
func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}
