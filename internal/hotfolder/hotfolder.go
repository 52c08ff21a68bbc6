// This file implements the hot folder service: a watched drop directory
// where every document that lands gets submitted as a conversion job.

package hotfolder

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// SubmittedDirName is the subdirectory successfully submitted files are
// moved into, so they are never picked up twice.
const SubmittedDirName = "submitted"

// SubmitFunc uploads one document. It is injected so the service stays
// independent of the API client and the history store.
type SubmitFunc func(path string) error

// Service watches a drop directory for documents. File system events drive
// the fast path; a periodic sweep catches anything the watcher missed and
// retries earlier failures.
type Service struct {
	dir           string
	submit        SubmitFunc
	sweepInterval int // Minutes between scheduled sweeps, 0 disables them

	watcher   *fsnotify.Watcher
	scheduler *gocron.Scheduler

	mu            sync.Mutex
	pending       map[string]bool
	inFlight      map[string]bool
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

// New creates a hot folder service for dir. Documents are handed to submit;
// sweepInterval is in minutes, 0 disables the scheduled sweep.
func New(dir string, sweepInterval int, submit SubmitFunc) *Service {
	return &Service{
		dir:           dir,
		submit:        submit,
		sweepInterval: sweepInterval,
		pending:       make(map[string]bool),
		inFlight:      make(map[string]bool),
		debounceDelay: 2 * time.Second, // Files may still be copying when the first event fires
		stopChan:      make(chan struct{}),
	}
}

// Start creates the directory if needed, begins watching it and schedules
// the periodic sweep. Files already in the folder are picked up right away.
func (s *Service) Start() error {
	if err := os.MkdirAll(filepath.Join(s.dir, SubmittedDirName), 0755); err != nil {
		return fmt.Errorf("creating hot folder: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}
	s.watcher = watcher

	log.Printf("Hot folder watcher started for: %s", s.dir)
	go s.processEvents()

	// Pick up files dropped while the service was not running.
	go s.runSweep()

	if s.sweepInterval > 0 {
		s.scheduler = gocron.NewScheduler(time.UTC)
		s.scheduler.SingletonModeAll()
		log.Printf("Scheduling hot folder sweep every %d minutes.", s.sweepInterval)
		_, err := s.scheduler.Every(s.sweepInterval).Minutes().Do(s.runSweep)
		if err != nil {
			log.Printf("Error scheduling hot folder sweep: %v", err)
		}
		s.scheduler.StartAsync()
	} else {
		log.Println("Hot folder sweep interval is 0, scheduled sweep is disabled.")
	}

	return nil
}

// Stop stops the watcher and the sweep scheduler.
func (s *Service) Stop() error {
	close(s.stopChan)
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// processEvents reacts to file system events in the drop directory.
func (s *Service) processEvents() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Hot folder watcher error: %v", err)

		case <-s.stopChan:
			return
		}
	}
}

// handleEvent queues a document for submission once events for it settle.
func (s *Service) handleEvent(event fsnotify.Event) {
	// Chmod fires when files are merely touched or browsed, ignore it.
	if event.Op == fsnotify.Chmod {
		return
	}
	relevant := event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Write == fsnotify.Write
	if !relevant || !s.eligible(event.Name) {
		return
	}

	s.mu.Lock()
	s.pending[event.Name] = true
	// Reset the debounce timer, a file being copied fires many events.
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounceDelay, s.flushPending)
	s.mu.Unlock()
}

// eligible reports whether a path looks like a document to submit.
func (s *Service) eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return models.AllowedUpload(base)
}

// flushPending submits everything queued by the debounce window.
func (s *Service) flushPending() {
	s.mu.Lock()
	paths := make([]string, 0, len(s.pending))
	for path := range s.pending {
		paths = append(paths, path)
	}
	s.pending = make(map[string]bool)
	s.mu.Unlock()

	for _, path := range paths {
		s.submitFile(path)
	}
}

func (s *Service) runSweep() {
	if err := s.Sweep(); err != nil {
		log.Printf("Hot folder sweep error: %v", err)
	}
}

// Sweep scans the drop directory once and submits every eligible document.
// Files whose submission failed earlier stay in the folder and are retried
// here.
func (s *Service) Sweep() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading hot folder: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if s.eligible(path) {
			s.submitFile(path)
		}
	}
	return nil
}

// submitFile uploads one document and moves it to the submitted directory.
// On failure the file stays put so a later sweep can retry it.
func (s *Service) submitFile(path string) {
	s.mu.Lock()
	if s.inFlight[path] {
		s.mu.Unlock()
		return
	}
	s.inFlight[path] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, path)
		s.mu.Unlock()
	}()

	// The file may be gone by now, moved away or already submitted.
	if _, err := os.Stat(path); err != nil {
		return
	}

	log.Printf("Submitting %s", path)
	if err := s.submit(path); err != nil {
		log.Printf("Submission of %s failed, leaving it in place: %v", path, err)
		return
	}

	if err := s.moveToSubmitted(path); err != nil {
		log.Printf("Could not move %s out of the hot folder: %v", path, err)
	}
}

// moveToSubmitted renames the file into the submitted subdirectory, picking
// a fresh name if the plain one is taken.
func (s *Service) moveToSubmitted(path string) error {
	if err := os.MkdirAll(filepath.Join(s.dir, SubmittedDirName), 0755); err != nil {
		return err
	}
	base := filepath.Base(path)
	target := filepath.Join(s.dir, SubmittedDirName, base)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		target = filepath.Join(s.dir, SubmittedDirName,
			fmt.Sprintf("%s_%d%s", stem, time.Now().Unix(), ext))
	}
	return os.Rename(path, target)
}
