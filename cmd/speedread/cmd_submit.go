package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/vrsandeep/speedread-go/internal/models"
)

func submitCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	watchAfter := fs.Bool("watch", false, "Track the job until it finishes")
	downloadAfter := fs.Bool("download", false, "Download the videos on completion, implies -watch")
	outDir := fs.String("out", app.cfg.Downloads.Path, "Directory for downloaded videos")
	buildParams := paramFlags(fs, app.cfg.Params)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedread submit [flags] <file>")
		return 1
	}
	path := fs.Arg(0)
	if !models.AllowedUpload(path) {
		fmt.Fprintf(os.Stderr, "Unsupported file type %q. Supported: .pdf, .epub, .txt\n", filepath.Ext(path))
		return 1
	}
	params, err := buildParams()
	if err != nil {
		return fail(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	job, err := app.client.CreateJob(context.Background(), f, filepath.Base(path), params)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Submitted %s as job %s\n", filepath.Base(path), job.ID)

	store, closeHistory, err := app.openHistory()
	if err != nil {
		log.Printf("Submission will not be recorded locally: %v", err)
	} else {
		defer closeHistory()
		if err := store.Record(job, app.cfg.ServerURL); err != nil {
			log.Printf("Could not record submission: %v", err)
		}
	}

	if *downloadAfter {
		*watchAfter = true
	}
	if *watchAfter {
		return watchToTerminal(app, store, job.ID, *downloadAfter, *outDir)
	}
	fmt.Printf("Track it with: speedread watch %s\n", job.ID)
	return 0
}
