package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mariov96/session-continuity-framework-sub000/internal/hierarchy"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. SCF_BATCH_WORKERS
const EnvPrefix = "SCF"

// Loaded is the effective configuration plus how it was assembled
type Loaded struct {
	Config   *Config
	Resolved hierarchy.Resolved
	Sources  []hierarchy.Source
}

// Problems returns warnings other than absent levels
func (l *Loaded) Problems() []error {
	var out []error
	for _, w := range l.Resolved.Warnings {
		if !errors.Is(w, types.ErrMissingLevel) {
			out = append(out, w)
		}
	}
	return out
}

// Sources lists the configuration files for a project, highest precedence
// first. projectPath may be empty, leaving only the user-wide levels.
func Sources(projectPath string) []hierarchy.Source {
	var sources []hierarchy.Source
	if projectPath != "" {
		dir := filepath.Join(projectPath, ".scf")
		sources = append(sources,
			hierarchy.Source{Level: hierarchy.LevelPrivate, Path: filepath.Join(dir, "config.private.yaml")},
			hierarchy.Source{Level: hierarchy.LevelLocal, Path: filepath.Join(dir, "config.local.yaml")},
			hierarchy.Source{Level: hierarchy.LevelProject, Path: filepath.Join(dir, "config.yaml")},
		)
	}
	global := GlobalScfPath()
	return append(sources,
		hierarchy.Source{Level: hierarchy.LevelOrg, Path: filepath.Join(global, "org.yaml")},
		hierarchy.Source{Level: hierarchy.LevelGlobal, Path: filepath.Join(global, "config.yaml")},
	)
}

// Load resolves the configuration chain for projectPath over the defaults,
// then applies SCF_* environment overrides. Malformed files are skipped and
// reported through Loaded.Problems.
func Load(projectPath string) (*Loaded, error) {
	sources := Sources(projectPath)
	resolved := hierarchy.LoadAndResolve(sources)

	v := viper.New()
	setDefaults(v, DefaultConfig())

	if settings, ok := resolved.Root.ToAny().(map[string]any); ok && len(settings) > 0 {
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, fmt.Errorf("failed to merge configuration: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return &Loaded{Config: cfg, Resolved: resolved, Sources: sources}, nil
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	return filepath.Join(GlobalScfPath(), "config.yaml")
}

// ProjectConfigPath returns the path to a project's config file
func ProjectConfigPath(projectPath string) string {
	return filepath.Join(projectPath, ".scf", "config.yaml")
}

// GlobalScfPath returns the path to the global scf directory
func GlobalScfPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".scf")
}

// ExpandPath replaces a leading ~ with the home directory
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
