// Package imageconfig loads bootimage.toml, the project configuration
// this builder reads before it does anything else: where to find class
// files and what target machine to lay objects out for. The output path
// comes from the command line, not from this file.
//
// Adapted from manifest/manifest.go's toml.Unmarshal-based Load/FindAndLoad
// pair — the file-finding and default-filling shape carries over, applied
// to this tool's own config schema instead of a maggie.toml project file.
package imageconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/bootimage-builder/internal/target"
)

// FileName is the config file this tool looks for.
const FileName = "bootimage.toml"

// Config is the parsed contents of a bootimage.toml file.
type Config struct {
	Classpath ClasspathConfig `toml:"classpath"`
	Target    TargetConfig    `toml:"target"`
	Runtime   RuntimeConfig   `toml:"runtime"`

	// Dir is the directory containing the loaded config file.
	Dir string `toml:"-"`
}

// ClasspathConfig lists where class files are found (spec §6's classpath
// finder input).
type ClasspathConfig struct {
	Roots []string `toml:"roots"`
}

// TargetConfig describes the cross-target machine object layout is
// translated for (spec §4.2).
type TargetConfig struct {
	WordSize int    `toml:"word-size"` // 4 or 8; default 8
	Endian   string `toml:"endian"`    // "little" or "big"; default "little"
}

// RuntimeConfig carries the runtime install locations the original
// AVIAN_JAVA_HOME/AVIAN_EMBED_PREFIX build-time macros supplied; here
// they are config values, each still overridable by an environment
// variable of the same name (see JavaHome, EmbedPrefix).
type RuntimeConfig struct {
	JavaHome    string `toml:"java-home"`
	EmbedPrefix string `toml:"embed-prefix"`
}

// Load parses bootimage.toml from dir, filling in defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imageconfig: cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("imageconfig: parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("imageconfig: cannot resolve path %s: %w", dir, err)
	}

	if c.Target.WordSize == 0 {
		c.Target.WordSize = 8
	}
	if c.Target.Endian == "" {
		c.Target.Endian = "little"
	}

	return &c, nil
}

// FindAndLoad walks up from startDir looking for bootimage.toml, loading
// the first one found. Returns nil, nil if none exists anywhere above
// startDir — an explicit config file is optional (spec §6's CLI can run
// with classpath roots given directly as positional arguments instead).
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// ClasspathRootPaths returns absolute paths for the configured classpath
// roots.
func (c *Config) ClasspathRootPaths() []string {
	paths := make([]string, len(c.Classpath.Roots))
	for i, r := range c.Classpath.Roots {
		if filepath.IsAbs(r) {
			paths[i] = r
		} else {
			paths[i] = filepath.Join(c.Dir, r)
		}
	}
	return paths
}

// Machine builds the target.Machine this config describes, running on a
// 64-bit little-endian build host (this tool's own toolchain constraints —
// spec's Non-goals exclude cross-compiling the builder itself).
func (c *Config) Machine() (target.Machine, error) {
	var word target.WordSize
	switch c.Target.WordSize {
	case 4:
		word = target.Word32
	case 8:
		word = target.Word64
	default:
		return target.Machine{}, fmt.Errorf("imageconfig: unsupported target word size %d (want 4 or 8)", c.Target.WordSize)
	}

	var endian target.Endian
	switch c.Target.Endian {
	case "little":
		endian = target.LittleEndian
	case "big":
		endian = target.BigEndian
	default:
		return target.Machine{}, fmt.Errorf("imageconfig: unsupported target endian %q (want \"little\" or \"big\")", c.Target.Endian)
	}

	return target.Machine{
		Word:        word,
		Endian:      endian,
		BuildWord:   target.Word64,
		BuildEndian: target.LittleEndian,
	}, nil
}

// JavaHome resolves the runtime's Java home directory: the
// AVIAN_JAVA_HOME environment variable if set, else the config value.
func (c *Config) JavaHome() string {
	if v := os.Getenv("AVIAN_JAVA_HOME"); v != "" {
		return v
	}
	return c.Runtime.JavaHome
}

// EmbedPrefix resolves the runtime's embedded-resource prefix: the
// AVIAN_EMBED_PREFIX environment variable if set, else the config value.
func (c *Config) EmbedPrefix() string {
	if v := os.Getenv("AVIAN_EMBED_PREFIX"); v != "" {
		return v
	}
	return c.Runtime.EmbedPrefix
}
