package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vrsandeep/speedread-go/internal/client"
	"github.com/vrsandeep/speedread-go/internal/config"
	"github.com/vrsandeep/speedread-go/internal/history"
	"github.com/vrsandeep/speedread-go/internal/models"
)

// app bundles what every command needs: the loaded configuration and an API
// client pointed at the configured server.
type app struct {
	cfg    *config.Config
	client *client.Client
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return &app{
		cfg:    cfg,
		client: client.NewWithTimeout(cfg.ServerURL, cfg.RequestTimeout),
	}, nil
}

// configFlagValue extracts the -config value from raw arguments before the
// FlagSet is parsed. The configuration has to be loaded first because it
// supplies the defaults the other flags are registered with.
func configFlagValue(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		for _, name := range []string{"-config", "--config"} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if strings.HasPrefix(arg, name+"=") {
				return strings.TrimPrefix(arg, name+"=")
			}
		}
	}
	return ""
}

// openHistory opens the local submission database and prunes records older
// than the configured retention. The returned closer is nil on error.
func (a *app) openHistory() (*history.Store, func(), error) {
	db, err := history.Open(a.cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	store := history.New(db)
	if a.cfg.History.Retention > 0 {
		if n, err := store.Prune(a.cfg.History.Retention); err != nil {
			log.Printf("Could not prune submission history: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d old submissions from history.", n)
		}
	}
	return store, func() { db.Close() }, nil
}

// paramFlags registers the rendering parameter flags on fs with defaults
// from the configuration and returns a builder that assembles and validates
// the params once the flags are parsed.
func paramFlags(fs *flag.FlagSet, defaults config.ParamsConfig) func() (*models.VideoParams, error) {
	startWPM := fs.Int("start-wpm", defaults.StartWPM, "Words per minute at the start of the video")
	peakWPM := fs.Int("peak-wpm", defaults.PeakWPM, "Words per minute after the ramp")
	rampWords := fs.Int("ramp-words", defaults.RampWords, "Words spent ramping up, 0 lets the server decide")
	rampStyle := fs.String("ramp-style", defaults.RampStyle, "Ramp shape: smooth, linear or stepped")
	chunkDuration := fs.Float64("chunk-duration", defaults.ChunkDuration, "Split the output into chunks of this many seconds, 0 for one video")
	width := fs.Int("width", defaults.Width, "Video width in pixels")
	height := fs.Int("height", defaults.Height, "Video height in pixels")
	fontSize := fs.Int("font-size", defaults.FontSize, "Font size in points")
	fps := fs.Int("fps", defaults.FPS, "Frames per second")
	bgColor := fs.String("bg-color", defaults.BgColor, "Background color, #RRGGBB")
	textColor := fs.String("text-color", defaults.TextColor, "Text color, #RRGGBB")
	orpColor := fs.String("orp-color", defaults.OrpColor, "Focus letter color, #RRGGBB")
	showWPM := fs.Bool("show-wpm", defaults.ShowWPM, "Overlay the current WPM on the video")
	preprocess := fs.Bool("preprocess", defaults.Preprocess, "Clean up the extracted text before rendering")

	return func() (*models.VideoParams, error) {
		p := &models.VideoParams{
			StartWPM:   *startWPM,
			PeakWPM:    *peakWPM,
			RampStyle:  *rampStyle,
			Width:      *width,
			Height:     *height,
			FontSize:   *fontSize,
			FPS:        *fps,
			BgColor:    *bgColor,
			TextColor:  *textColor,
			OrpColor:   *orpColor,
			ShowWPM:    *showWPM,
			Preprocess: *preprocess,
		}
		if *rampWords > 0 {
			v := *rampWords
			p.RampWords = &v
		}
		if *chunkDuration > 0 {
			v := *chunkDuration
			p.ChunkDuration = &v
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// progressLine renders a job snapshot as one compact line for the watch
// output.
func progressLine(job *models.Job) string {
	return fmt.Sprintf("[%s] %3d%%  %s", job.Status, job.ProgressPercent, job.CurrentStep)
}

func printJob(w io.Writer, job *models.Job) {
	fmt.Fprintf(w, "Job:      %s\n", job.ID)
	fmt.Fprintf(w, "File:     %s\n", job.Filename)
	fmt.Fprintf(w, "Status:   %s\n", job.Status)
	fmt.Fprintf(w, "Progress: %d%%  (%s)\n", job.ProgressPercent, job.CurrentStep)
	if job.TotalWords != nil {
		fmt.Fprintf(w, "Words:    %d", *job.TotalWords)
		if job.ProcessedWords != nil {
			fmt.Fprintf(w, " (%d processed)", *job.ProcessedWords)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Created:  %s\n", job.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if job.CompletedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", job.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if job.VideoDurationSeconds != nil {
		fmt.Fprintf(w, "Duration: %.1fs\n", *job.VideoDurationSeconds)
	}
	for _, name := range job.OutputFiles {
		fmt.Fprintf(w, "Output:   %s\n", name)
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:    %s\n", job.ErrorMessage)
	}
}

// downloadArtifacts fetches the videos of a job into dir. With a non-empty
// only, just that one file is fetched.
func (a *app) downloadArtifacts(ctx context.Context, jobID, only, dir string) error {
	list, err := a.client.ListVideos(ctx, jobID)
	if err != nil {
		return fmt.Errorf("listing videos of job %s: %w", jobID, err)
	}
	if len(list.Files) == 0 {
		return fmt.Errorf("job %s has no videos to download", jobID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	matched := false
	for _, name := range list.Files {
		if only != "" && name != only {
			continue
		}
		matched = true
		dest := filepath.Join(dir, name)
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		n, err := a.client.DownloadVideo(ctx, jobID, name, f)
		f.Close()
		if err != nil {
			os.Remove(dest)
			return err
		}
		fmt.Printf("Downloaded %s (%d bytes)\n", dest, n)
	}
	if !matched {
		return fmt.Errorf("job %s has no video named %q", jobID, only)
	}
	return nil
}

// fail prints a one-shot operation's error the way users should see it and
// returns the exit code for the command.
func fail(err error) int {
	var ve *client.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintf(os.Stderr, "Rejected by server: %s\n", ve.Detail)
		return 1
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
