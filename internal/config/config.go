// This file defines the configuration for the speedread client.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// Config holds all client settings. It maps directly to the structure of
// speedread.yml.
type Config struct {
	ServerURL      string        `mapstructure:"server_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Downloads      struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"downloads"`
	History struct {
		Path      string        `mapstructure:"path"`
		Retention time.Duration `mapstructure:"retention"`
	} `mapstructure:"history"`
	Hotfolder struct {
		Path          string `mapstructure:"path"`           // Empty disables the hot folder
		SweepInterval int    `mapstructure:"sweep_interval"` // Minutes between full folder sweeps
	} `mapstructure:"hotfolder"`
	Params ParamsConfig `mapstructure:"params"`
}

// ParamsConfig holds the default rendering parameters for submissions.
// Command line flags override these per run.
type ParamsConfig struct {
	StartWPM      int     `mapstructure:"start_wpm"`
	PeakWPM       int     `mapstructure:"peak_wpm"`
	RampWords     int     `mapstructure:"ramp_words"` // 0 leaves the ramp length to the server
	RampStyle     string  `mapstructure:"ramp_style"`
	ChunkDuration float64 `mapstructure:"chunk_duration"` // 0 produces a single video
	Width         int     `mapstructure:"width"`
	Height        int     `mapstructure:"height"`
	FontSize      int     `mapstructure:"font_size"`
	FPS           int     `mapstructure:"fps"`
	BgColor       string  `mapstructure:"bg_color"`
	TextColor     string  `mapstructure:"text_color"`
	OrpColor      string  `mapstructure:"orp_color"`
	ShowWPM       bool    `mapstructure:"show_wpm"`
	Preprocess    bool    `mapstructure:"preprocess"`
}

// VideoParams converts the configured defaults into the wire type.
func (p ParamsConfig) VideoParams() *models.VideoParams {
	vp := &models.VideoParams{
		StartWPM:   p.StartWPM,
		PeakWPM:    p.PeakWPM,
		RampStyle:  p.RampStyle,
		Width:      p.Width,
		Height:     p.Height,
		FontSize:   p.FontSize,
		FPS:        p.FPS,
		BgColor:    p.BgColor,
		TextColor:  p.TextColor,
		OrpColor:   p.OrpColor,
		ShowWPM:    p.ShowWPM,
		Preprocess: p.Preprocess,
	}
	if p.RampWords > 0 {
		v := p.RampWords
		vp.RampWords = &v
	}
	if p.ChunkDuration > 0 {
		v := p.ChunkDuration
		vp.ChunkDuration = &v
	}
	return vp
}

// Load reads the configuration. With an empty path it searches for
// "speedread.yml" in the current directory and in ~/.config/speedread; a
// missing file is fine, defaults apply. Environment variables with a
// SPEEDREAD_ prefix override file values, e.g. SPEEDREAD_SERVER_URL
// overrides the `server_url` key.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("speedread")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/speedread")
	}

	v.SetEnvPrefix("SPEEDREAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", "http://localhost:8000")
	v.SetDefault("poll_interval", "2s")
	v.SetDefault("request_timeout", "20s")
	v.SetDefault("downloads.path", "./videos")
	v.SetDefault("history.path", "./speedread.db")
	v.SetDefault("history.retention", "720h")
	v.SetDefault("hotfolder.path", "")
	v.SetDefault("hotfolder.sweep_interval", 5)
	v.SetDefault("params.start_wpm", 200)
	v.SetDefault("params.peak_wpm", 600)
	v.SetDefault("params.ramp_words", 0)
	v.SetDefault("params.ramp_style", models.RampSmooth)
	v.SetDefault("params.chunk_duration", 0)
	v.SetDefault("params.width", 1920)
	v.SetDefault("params.height", 1080)
	v.SetDefault("params.font_size", 120)
	v.SetDefault("params.fps", 30)
	v.SetDefault("params.bg_color", "#1a1a2e")
	v.SetDefault("params.text_color", "#ffffff")
	v.SetDefault("params.orp_color", "#ff0000")
	v.SetDefault("params.show_wpm", true)
	v.SetDefault("params.preprocess", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && path == "" {
			// No config file anywhere on the search path; defaults apply.
		} else {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
