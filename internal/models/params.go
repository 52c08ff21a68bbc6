package models

import (
	"fmt"
	"regexp"
)

// Ramp styles control how the word rate climbs from start_wpm to peak_wpm.
const (
	RampSmooth  = "smooth"
	RampLinear  = "linear"
	RampStepped = "stepped"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// VideoParams are the rendering options sent with a job submission. The
// server echoes them back on every job snapshot.
type VideoParams struct {
	StartWPM      int      `json:"start_wpm"`
	PeakWPM       int      `json:"peak_wpm"`
	RampWords     *int     `json:"ramp_words,omitempty"` // Nullable, server picks a ramp length when unset
	RampStyle     string   `json:"ramp_style"`
	ChunkDuration *float64 `json:"chunk_duration,omitempty"` // Nullable, split output into chunks of this many seconds
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	FontSize      int      `json:"font_size"`
	FPS           int      `json:"fps"`
	BgColor       string   `json:"bg_color"`
	TextColor     string   `json:"text_color"`
	OrpColor      string   `json:"orp_color"`
	ShowWPM       bool     `json:"show_wpm"`
	Preprocess    bool     `json:"preprocess"`
}

// DefaultVideoParams returns the server's documented defaults.
func DefaultVideoParams() *VideoParams {
	return &VideoParams{
		StartWPM:   200,
		PeakWPM:    600,
		RampStyle:  RampSmooth,
		Width:      1920,
		Height:     1080,
		FontSize:   120,
		FPS:        30,
		BgColor:    "#1a1a2e",
		TextColor:  "#ffffff",
		OrpColor:   "#ff0000",
		ShowWPM:    true,
		Preprocess: true,
	}
}

// Clone returns a copy that shares no pointers with the original.
func (p *VideoParams) Clone() *VideoParams {
	if p == nil {
		return nil
	}
	c := *p
	if p.RampWords != nil {
		v := *p.RampWords
		c.RampWords = &v
	}
	if p.ChunkDuration != nil {
		v := *p.ChunkDuration
		c.ChunkDuration = &v
	}
	return &c
}

// Validate checks every field against the ranges the server enforces, so bad
// input is rejected before an upload is attempted.
func (p *VideoParams) Validate() error {
	if p.StartWPM < 50 || p.StartWPM > 1000 {
		return fmt.Errorf("start_wpm must be between 50 and 1000, got %d", p.StartWPM)
	}
	if p.PeakWPM < 100 || p.PeakWPM > 2000 {
		return fmt.Errorf("peak_wpm must be between 100 and 2000, got %d", p.PeakWPM)
	}
	if p.RampWords != nil && (*p.RampWords < 10 || *p.RampWords > 500) {
		return fmt.Errorf("ramp_words must be between 10 and 500, got %d", *p.RampWords)
	}
	switch p.RampStyle {
	case RampSmooth, RampLinear, RampStepped:
	default:
		return fmt.Errorf("ramp_style must be one of smooth, linear or stepped, got %q", p.RampStyle)
	}
	if p.ChunkDuration != nil && (*p.ChunkDuration < 5 || *p.ChunkDuration > 300) {
		return fmt.Errorf("chunk_duration must be between 5 and 300 seconds, got %g", *p.ChunkDuration)
	}
	if p.Width < 640 || p.Width > 3840 {
		return fmt.Errorf("width must be between 640 and 3840, got %d", p.Width)
	}
	if p.Height < 480 || p.Height > 2160 {
		return fmt.Errorf("height must be between 480 and 2160, got %d", p.Height)
	}
	if p.FontSize < 24 || p.FontSize > 300 {
		return fmt.Errorf("font_size must be between 24 and 300, got %d", p.FontSize)
	}
	if p.FPS < 15 || p.FPS > 60 {
		return fmt.Errorf("fps must be between 15 and 60, got %d", p.FPS)
	}
	for name, color := range map[string]string{
		"bg_color":   p.BgColor,
		"text_color": p.TextColor,
		"orp_color":  p.OrpColor,
	} {
		if !hexColorRe.MatchString(color) {
			return fmt.Errorf("%s must be a #RRGGBB hex color, got %q", name, color)
		}
	}
	return nil
}
