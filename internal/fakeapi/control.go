// Test and demo controls for moving fake jobs through their lifecycle.

package fakeapi

import (
	"fmt"
	"time"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// SetJob injects or replaces a job, bypassing the create endpoint.
func (s *Server) SetJob(job *models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		s.order = append(s.order, job.ID)
	}
	s.jobs[job.ID] = job.Clone()
}

// Job returns a copy of the stored job.
func (s *Server) Job(id string) (*models.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// Advance moves a job one step forward: pending becomes processing, then
// progress climbs until the job completes on its own.
func (s *Server) Advance(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("no such job %q", id)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("job %q is already %s", id, job.Status)
	}
	s.advanceLocked(job, 40)
	return nil
}

// Complete marks a job completed and registers its artifacts. Without
// explicit names a single video named after the uploaded document appears.
func (s *Server) Complete(id string, files ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("no such job %q", id)
	}
	s.completeLocked(job, files...)
	return nil
}

// Fail marks a job failed with the given error message.
func (s *Server) Fail(id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("no such job %q", id)
	}
	now := time.Now().UTC()
	job.Status = models.StatusFailed
	job.CurrentStep = "Failed"
	job.ErrorMessage = message
	job.CompletedAt = &now
	return nil
}

// AutoAdvance makes every job poll move the job forward by pct percent, so
// a watched job runs through its whole lifecycle unattended. Zero restores
// manual control.
func (s *Server) AutoAdvance(pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoAdvance = pct
}

func (s *Server) advanceLocked(job *models.Job, pct int) {
	if job.Status.Terminal() {
		return
	}
	if job.Status == models.StatusPending {
		now := time.Now().UTC()
		job.Status = models.StatusProcessing
		job.StartedAt = &now
		job.CurrentStep = "Extracting text from document"
		words := 1200
		job.TotalWords = &words
	}
	job.ProgressPercent += pct
	if job.ProgressPercent >= 100 {
		s.completeLocked(job, defaultArtifact(job))
		return
	}
	if job.ProgressPercent >= 20 {
		job.CurrentStep = "Generating video frames"
		if job.TotalWords != nil {
			processed := *job.TotalWords * job.ProgressPercent / 100
			job.ProcessedWords = &processed
		}
	}
}

func (s *Server) completeLocked(job *models.Job, files ...string) {
	now := time.Now().UTC()
	job.Status = models.StatusCompleted
	job.ProgressPercent = 100
	job.CurrentStep = "Complete"
	job.CompletedAt = &now
	if job.TotalWords != nil {
		job.ProcessedWords = job.TotalWords
	}
	duration := 75.0
	job.VideoDurationSeconds = &duration

	if len(files) == 0 {
		files = []string{defaultArtifact(job)}
	}
	job.OutputFiles = append([]string(nil), files...)

	if s.videos[job.ID] == nil {
		s.videos[job.ID] = make(map[string][]byte)
	}
	for _, name := range files {
		s.videos[job.ID][name] = []byte("FAKE MP4 " + name)
	}
}
