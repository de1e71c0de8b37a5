package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reelfit/internal/compose"
	"reelfit/internal/dirs"
)

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	// Ensure base directories exist
	_ = dirs.EnsureAll()

	// Setup config search path
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: REELFIT_*
	viper.SetEnvPrefix("REELFIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	SetDefaults(viper.GetViper())

	// Bind root persistent flags to Viper keys
	_ = viper.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("ffmpeg", root.PersistentFlags().Lookup("ffmpeg"))
	_ = viper.BindPFlag("ffprobe", root.PersistentFlags().Lookup("ffprobe"))
	_ = viper.BindPFlag("jobs", root.PersistentFlags().Lookup("jobs"))
	_ = viper.BindPFlag("platforms", root.PersistentFlags().Lookup("platforms"))

	// Read config file if present (ignore not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// SetDefaults registers the non-profile defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("jobs", 2)
	v.SetDefault("platforms", DefaultPlatforms)
	v.SetDefault("cta.font_size", 40)
	v.SetDefault("cta.font_color", "white")
	v.SetDefault("cta.box_color", "black")
	v.SetDefault("cta.opacity", 0.8)
	v.SetDefault("cta.position", string(compose.PositionLowerThird))
	v.SetDefault("overlay.width_fraction", 0.3)
	v.SetDefault("overlay.position", string(compose.PositionTop))
}

// Config is the resolved runtime configuration.
type Config struct {
	OutDir     string
	InputDir   string
	ArchiveDir string
	FFmpeg     string
	FFprobe    string
	Jobs       int
	Verbose    bool
	Platforms  []string
	Profiles   *ProfileTable
	CTA        compose.CTA
	Overlay    compose.Overlay
}

// Load resolves the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	profiles, err := LoadProfiles(v)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		OutDir:     v.GetString("out_dir"),
		InputDir:   v.GetString("input_dir"),
		ArchiveDir: v.GetString("archive_dir"),
		FFmpeg:     v.GetString("ffmpeg"),
		FFprobe:    v.GetString("ffprobe"),
		Jobs:       v.GetInt("jobs"),
		Verbose:    v.GetBool("verbose"),
		Platforms:  v.GetStringSlice("platforms"),
		Profiles:   profiles,
		CTA: compose.CTA{
			Text:        v.GetString("cta.text"),
			FontFile:    v.GetString("cta.font_file"),
			FontSize:    v.GetInt("cta.font_size"),
			FontColor:   v.GetString("cta.font_color"),
			BoxColor:    v.GetString("cta.box_color"),
			Opacity:     v.GetFloat64("cta.opacity"),
			Position:    compose.ParsePosition(v.GetString("cta.position")),
			StartSec:    v.GetFloat64("cta.start_sec"),
			DurationSec: v.GetFloat64("cta.duration_sec"),
		},
		Overlay: compose.Overlay{
			Path:          v.GetString("overlay.path"),
			WidthFraction: v.GetFloat64("overlay.width_fraction"),
			Position:      compose.ParsePosition(v.GetString("overlay.position")),
			StartSec:      v.GetFloat64("overlay.start_sec"),
			DurationSec:   v.GetFloat64("overlay.duration_sec"),
		},
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = 2
	}
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = DefaultPlatforms
	}
	if _, err := profiles.Select(cfg.Platforms); err != nil {
		return nil, err
	}
	if err := fillDirs(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fillDirs(cfg *Config) error {
	var err error
	if cfg.OutDir == "" {
		if cfg.OutDir, err = dirs.DefaultOutputDir(); err != nil {
			return err
		}
	}
	if cfg.InputDir == "" {
		if cfg.InputDir, err = dirs.InputDir(); err != nil {
			return err
		}
	}
	if cfg.ArchiveDir == "" {
		if cfg.ArchiveDir, err = dirs.ArchiveDir(); err != nil {
			return err
		}
	}
	return nil
}
