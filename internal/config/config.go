package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/la2dat/internal/codec"
	"github.com/udisondev/la2dat/internal/format"
	"github.com/udisondev/la2dat/internal/patch"
	"github.com/udisondev/la2dat/internal/rates"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Snapshot providers.
const (
	ProviderXML      = "xml"
	ProviderPostgres = "postgres"
)

// Codecs.
const (
	CodecExec = "exec"
	CodecText = "text"
)

// Builder holds all configuration of the dat patcher.
type Builder struct {
	LogLevel string `yaml:"log_level"`

	// Tables
	SourceDir string `yaml:"source_dir"` // original client tables, never modified
	OutputDir string `yaml:"output_dir"` // patched tables and regenerated descriptors
	Tables    Tables `yaml:"tables"`
	Slots     Slots  `yaml:"slots"`

	// Skill text
	Categories  patch.Categories `yaml:"categories"`
	DropDisplay string           `yaml:"drop_display"` // percent | fraction
	Places      int              `yaml:"places"`
	VIP         rates.Config     `yaml:"vip"`

	// NPC data
	Provider string         `yaml:"provider"` // xml | postgres
	NpcDir   string         `yaml:"npc_dir"`
	ItemDir  string         `yaml:"item_dir"`
	Database DatabaseConfig `yaml:"database"`

	// Codec
	Codec string           `yaml:"codec"` // exec | text
	Tools codec.ExecConfig `yaml:"tools"`
}

// Tables names the three client tables.
type Tables struct {
	NpcGrp    string `yaml:"npcgrp"`
	SkillGrp  string `yaml:"skillgrp"`
	SkillName string `yaml:"skillname"`
}

// Slots describes the npcgrp skill slot array.
type Slots struct {
	Array    string `yaml:"array"`    // header name of the slot column family
	Capacity int    `yaml:"capacity"` // fields after patching, two per skill
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultBuilder returns Builder config with sensible defaults.
func DefaultBuilder() Builder {
	return Builder{
		LogLevel:  "info",
		SourceDir: "original_data",
		OutputDir: "new_data",
		Tables: Tables{
			NpcGrp:    "npcgrp.dat",
			SkillGrp:  "skillgrp.dat",
			SkillName: "skillname-e.dat",
		},
		Slots: Slots{
			Array:    "dtab1",
			Capacity: 32, // 16 skills; stock Interlude has 13
		},
		Categories:  patch.DefaultCategories(),
		DropDisplay: string(format.DisplayPercent),
		Places:      format.DefaultPlaces,
		VIP:         rates.DefaultConfig(),
		Provider:    ProviderXML,
		NpcDir:      "npcs",
		ItemDir:     "items",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "la2go",
			Password: "la2go",
			DBName:   "la2go",
			SSLMode:  "disable",
		},
		Codec: CodecExec,
		Tools: codec.DefaultExecConfig(),
	}
}

// LoadBuilder loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadBuilder(path string) (Builder, error) {
	cfg := DefaultBuilder()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the config before any table is read.
func (b Builder) Validate() error {
	if _, err := format.ParseDisplayMode(b.DropDisplay); err != nil {
		return err
	}
	if b.Places < 0 {
		return fmt.Errorf("%w: places must be >= 0, got %d", ErrInvalidConfig, b.Places)
	}
	if b.Slots.Array == "" {
		return fmt.Errorf("%w: slots.array is empty", ErrInvalidConfig)
	}
	if b.Slots.Capacity <= 0 || b.Slots.Capacity%2 != 0 {
		return fmt.Errorf("%w: slots.capacity must be a positive even field count, got %d", ErrInvalidConfig, b.Slots.Capacity)
	}
	if err := b.Categories.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(b.Categories.Enabled()) == 0 {
		return fmt.Errorf("%w: every category is disabled", ErrInvalidConfig)
	}
	switch b.Provider {
	case ProviderXML, ProviderPostgres:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, b.Provider)
	}
	switch b.Codec {
	case CodecExec, CodecText:
	default:
		return fmt.Errorf("%w: unknown codec %q", ErrInvalidConfig, b.Codec)
	}
	same, err := samePath(b.SourceDir, b.OutputDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if same {
		return fmt.Errorf("%w: output_dir %q is the source_dir %q", ErrInvalidConfig, b.OutputDir, b.SourceDir)
	}
	return nil
}

// samePath reports whether a and b name the same directory, either by their
// absolute cleaned paths or, when both exist, by file identity.
func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", a, err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", b, err)
	}
	if absA == absB {
		return true, nil
	}

	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}

// ParseLogLevel maps a config log level to slog.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
