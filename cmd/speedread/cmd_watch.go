package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vrsandeep/speedread-go/internal/history"
	"github.com/vrsandeep/speedread-go/internal/models"
	"github.com/vrsandeep/speedread-go/internal/watcher"
)

func watchCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	download := fs.Bool("download", false, "Download the videos on completion")
	outDir := fs.String("out", app.cfg.Downloads.Path, "Directory for downloaded videos")
	fs.Parse(args)

	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedread watch [flags] [job-id]")
		return 1
	}

	store, closeHistory, err := app.openHistory()
	if err != nil {
		log.Printf("Watching without local history: %v", err)
	} else {
		defer closeHistory()
	}

	id := fs.Arg(0)
	if id == "" {
		if store == nil {
			fmt.Fprintln(os.Stderr, "No job id given and no local history to pick one from.")
			return 1
		}
		latest, err := store.Latest()
		if err != nil {
			fmt.Fprintln(os.Stderr, "No job id given and nothing in the local history yet.")
			return 1
		}
		id = latest.JobID
		fmt.Printf("Watching most recent submission %s (%s)\n", id, latest.Filename)
	}

	return watchToTerminal(app, store, id, *download, *outDir)
}

// watchToTerminal tracks one job until it reaches a terminal status and
// reports progress on stdout. A fetch failure keeps the last known state on
// screen and adds an error line, the loop itself keeps going. Returns the
// process exit code.
func watchToTerminal(app *app, store *history.Store, id string, download bool, outDir string) int {
	w := watcher.NewWithInterval(app.client, app.cfg.PollInterval)
	defer w.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	w.Observe(id)

	var lastLine string
	var hadError bool
	for {
		select {
		case <-quit:
			fmt.Fprintf(os.Stderr, "\nStopped watching. The server keeps working on job %s.\n", id)
			return 130

		case s := <-w.Updates():
			if s.Err != nil {
				if !hadError {
					fmt.Fprintf(os.Stderr, "Fetch failed, retrying: %v\n", s.Err)
				}
				hadError = true
				continue
			}
			if hadError {
				fmt.Fprintln(os.Stderr, "Server reachable again.")
				hadError = false
			}
			if line := progressLine(s.Job); line != lastLine {
				fmt.Println(line)
				lastLine = line
			}

			if !s.Job.Status.Terminal() {
				continue
			}
			if store != nil {
				if err := store.UpdateFromJob(s.Job); err != nil {
					log.Printf("Could not update local history: %v", err)
				}
			}
			return finishWatch(app, s.Job, download, outDir)
		}
	}
}

// finishWatch reports the terminal state and optionally downloads the
// produced videos.
func finishWatch(app *app, job *models.Job, download bool, outDir string) int {
	if job.Status == models.StatusFailed {
		fmt.Fprintf(os.Stderr, "Job %s failed: %s\n", job.ID, job.ErrorMessage)
		return 1
	}
	for _, name := range job.OutputFiles {
		fmt.Printf("Produced %s\n", name)
	}
	if !download {
		if len(job.OutputFiles) > 0 {
			fmt.Printf("Fetch with: speedread download %s\n", job.ID)
		}
		return 0
	}
	if err := app.downloadArtifacts(context.Background(), job.ID, "", outDir); err != nil {
		return fail(err)
	}
	return 0
}
