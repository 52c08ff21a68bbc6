// One-shot job commands: status, list, history, download and delete.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/vrsandeep/speedread-go/internal/client"
)

func statusCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedread status <job-id>")
		return 1
	}

	job, err := app.client.GetJob(context.Background(), fs.Arg(0))
	if err != nil {
		return fail(err)
	}
	printJob(os.Stdout, job)
	return 0
}

func listCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	limit := fs.Int("limit", 20, "Maximum number of jobs to list")
	offset := fs.Int("offset", 0, "Number of jobs to skip")
	fs.Parse(args)

	list, err := app.client.ListJobs(context.Background(), *limit, *offset)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tSTATUS\tPROGRESS\tFILE\tCREATED")
	for _, job := range list.Jobs {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\t%s\n",
			job.ID, job.Status, job.ProgressPercent, job.Filename,
			job.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("%d of %d jobs\n", len(list.Jobs), list.Total)
	return 0
}

func historyCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("history", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	limit := fs.Int("limit", 20, "Maximum number of submissions to list")
	fs.Parse(args)

	store, closeHistory, err := app.openHistory()
	if err != nil {
		return fail(err)
	}
	defer closeHistory()

	subs, err := store.Recent(*limit)
	if err != nil {
		return fail(err)
	}
	if len(subs) == 0 {
		fmt.Println("No submissions recorded yet.")
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tSTATUS\tPROGRESS\tFILE\tSUBMITTED")
	for _, sub := range subs {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\t%s\n",
			sub.JobID, sub.Status, sub.ProgressPercent, sub.Filename,
			sub.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	return 0
}

func downloadCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("download", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	file := fs.String("file", "", "Download only this one video")
	outDir := fs.String("out", app.cfg.Downloads.Path, "Directory for downloaded videos")
	fs.Parse(args)

	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedread download [flags] [job-id]")
		return 1
	}

	id := fs.Arg(0)
	if id == "" {
		store, closeHistory, err := app.openHistory()
		if err != nil {
			return fail(err)
		}
		latest, err := store.Latest()
		closeHistory()
		if err != nil {
			fmt.Fprintln(os.Stderr, "No job id given and nothing in the local history yet.")
			return 1
		}
		id = latest.JobID
	}

	if err := app.downloadArtifacts(context.Background(), id, *file, *outDir); err != nil {
		return fail(err)
	}
	return 0
}

func deleteCmd(args []string) int {
	app, err := newApp(configFlagValue(args))
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.String("config", "", "Path to a config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedread delete <job-id>")
		return 1
	}
	id := fs.Arg(0)

	err = app.client.DeleteJob(context.Background(), id)
	switch {
	case err == nil:
		fmt.Printf("Deleted job %s\n", id)
	case errors.Is(err, client.ErrNotFound):
		// Deleting twice is fine, the job is gone either way.
		fmt.Printf("Job %s was already gone\n", id)
	default:
		return fail(err)
	}

	store, closeHistory, err := app.openHistory()
	if err != nil {
		log.Printf("Could not open local history: %v", err)
		return 0
	}
	defer closeHistory()
	if err := store.Delete(id); err != nil {
		log.Printf("Could not remove %s from local history: %v", id, err)
	}
	return 0
}
