// Command speedread is the command line client for the speed reading video
// generator service: it submits documents, tracks conversion jobs to
// completion and downloads the produced videos.
package main

import (
	"fmt"
	"log"
	"os"
)

const version = "0.1.0"

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "submit":
		os.Exit(submitCmd(os.Args[2:]))
	case "watch":
		os.Exit(watchCmd(os.Args[2:]))
	case "status":
		os.Exit(statusCmd(os.Args[2:]))
	case "list":
		os.Exit(listCmd(os.Args[2:]))
	case "history":
		os.Exit(historyCmd(os.Args[2:]))
	case "download":
		os.Exit(downloadCmd(os.Args[2:]))
	case "delete":
		os.Exit(deleteCmd(os.Args[2:]))
	case "hotfolder":
		os.Exit(hotfolderCmd(os.Args[2:]))
	case "version", "--version":
		fmt.Println("speedread " + version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`speedread - turn documents into speed reading videos

Usage:
  speedread <command> [flags] [args]

Commands:
  submit <file>        Upload a document and start a conversion job
  watch [job-id]       Track a job until it completes or fails
  status <job-id>      Show the current state of a job
  list                 List jobs on the server
  history              List jobs submitted from this machine
  download [job-id]    Download the videos a completed job produced
  delete <job-id>      Remove a job and its videos from the server
  hotfolder            Watch a drop folder and submit every document in it
  version              Print the client version

Every command accepts -config <path> to point at an alternative config
file. Without it, speedread.yml is looked up in the current directory and
in ~/.config/speedread; defaults apply when no file exists.

Run 'speedread <command> -h' for the flags of a command.
`)
}
