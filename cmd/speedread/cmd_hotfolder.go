// The hotfolder command runs the drop-folder daemon: documents dropped into
// the watched directory are submitted as conversion jobs and tracked until
// they settle.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/vrsandeep/speedread-go/internal/history"
	"github.com/vrsandeep/speedread-go/internal/hotfolder"
	"github.com/vrsandeep/speedread-go/internal/models"
	"github.com/vrsandeep/speedread-go/internal/watcher"
)

func hotfolderCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("hotfolder", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	dir := fs.String("dir", app.cfg.Hotfolder.Path, "Drop directory to watch")
	download := fs.Bool("download", false, "Download the videos of every completed job")
	outDir := fs.String("out", app.cfg.Downloads.Path, "Directory for downloaded videos")
	buildParams := paramFlags(fs, app.cfg.Params)
	fs.Parse(args)

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "No hot folder configured. Set hotfolder.path or pass -dir.")
		return 1
	}
	params, err := buildParams()
	if err != nil {
		return fail(err)
	}

	store, closeHistory, err := app.openHistory()
	if err != nil {
		log.Printf("Running without local history: %v", err)
	} else {
		defer closeHistory()
	}

	var tracking sync.WaitGroup
	stop := make(chan struct{})
	submit := func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		job, err := app.client.CreateJob(context.Background(), f, filepath.Base(path), params)
		if err != nil {
			return err
		}
		log.Printf("Submitted %s as job %s", path, job.ID)
		if store != nil {
			if err := store.Record(job, app.cfg.ServerURL); err != nil {
				log.Printf("Could not record job %s: %v", job.ID, err)
			}
		}
		tracking.Add(1)
		go func() {
			defer tracking.Done()
			trackJob(app, store, job.ID, *download, *outDir, stop)
		}()
		return nil
	}

	svc := hotfolder.New(*dir, app.cfg.Hotfolder.SweepInterval, submit)
	if err := svc.Start(); err != nil {
		return fail(err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	// Free the signal so a second Ctrl-C kills the process the hard way.
	signal.Stop(quit)
	log.Println("Shutting down hot folder...")
	close(stop)
	if err := svc.Stop(); err != nil {
		log.Printf("Error stopping hot folder: %v", err)
	}
	tracking.Wait()
	log.Println("Hot folder exiting.")
	return 0
}

// trackJob follows one submitted job to its terminal state in the
// background, logging transitions instead of printing to stdout. Closing
// stop abandons the tracking, jobs the server is still working on keep
// running there.
func trackJob(app *app, store *history.Store, id string, download bool, outDir string, stop <-chan struct{}) {
	w := watcher.NewWithInterval(app.client, app.cfg.PollInterval)
	defer w.Close()
	w.Observe(id)

	var lastLine string
	for {
		select {
		case <-stop:
			log.Printf("Job %s: shutting down, the server keeps working on it.", id)
			return

		case s := <-w.Updates():
			if s.Err != nil {
				log.Printf("Job %s: fetch failed, retrying: %v", id, s.Err)
				continue
			}
			if line := progressLine(s.Job); line != lastLine {
				log.Printf("Job %s: %s", id, line)
				lastLine = line
			}
			if !s.Job.Status.Terminal() {
				continue
			}
			if store != nil {
				if err := store.UpdateFromJob(s.Job); err != nil {
					log.Printf("Could not update local history for %s: %v", id, err)
				}
			}
			if s.Job.Status == models.StatusFailed {
				log.Printf("Job %s failed: %s", id, s.Job.ErrorMessage)
				return
			}
			if download {
				if err := app.downloadArtifacts(context.Background(), id, "", outDir); err != nil {
					log.Printf("Could not download videos of %s: %v", id, err)
				}
			}
			return
		}
	}
}
