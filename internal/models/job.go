// Package models defines the wire types shared by the API client, the job
// watcher and the local submission history.
package models

import (
	"path/filepath"
	"strings"
	"time"
)

// JobStatus is the lifecycle state reported by the server. A job only moves
// forward: pending -> processing -> completed or failed.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the job has finished. A terminal job never
// changes status again.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of one conversion job as reported by the server.
type Job struct {
	ID                   string       `json:"id"`
	Status               JobStatus    `json:"status"`
	Filename             string       `json:"filename"`
	Params               *VideoParams `json:"params,omitempty"`
	ProgressPercent      int          `json:"progress_percent"`
	CurrentStep          string       `json:"current_step"`
	TotalWords           *int         `json:"total_words,omitempty"`     // Nullable, known after text extraction
	ProcessedWords       *int         `json:"processed_words,omitempty"` // Nullable, advances during rendering
	OutputFiles          []string     `json:"output_files"`
	ErrorMessage         string       `json:"error_message,omitempty"`
	VideoDurationSeconds *float64     `json:"video_duration_seconds,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	StartedAt            *time.Time   `json:"started_at,omitempty"`
	CompletedAt          *time.Time   `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the job. Snapshots handed to callers must not
// share pointers or slices with the copy a watcher keeps updating.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.Params != nil {
		c.Params = j.Params.Clone()
	}
	if j.OutputFiles != nil {
		c.OutputFiles = append([]string(nil), j.OutputFiles...)
	}
	if j.TotalWords != nil {
		v := *j.TotalWords
		c.TotalWords = &v
	}
	if j.ProcessedWords != nil {
		v := *j.ProcessedWords
		c.ProcessedWords = &v
	}
	if j.VideoDurationSeconds != nil {
		v := *j.VideoDurationSeconds
		c.VideoDurationSeconds = &v
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// JobList is the paginated response of the job listing endpoint.
type JobList struct {
	Jobs  []*Job `json:"jobs"`
	Total int    `json:"total"`
}

// VideoList describes the artifacts a completed job produced.
type VideoList struct {
	JobID        string   `json:"job_id"`
	Files        []string `json:"files"`
	DownloadURLs []string `json:"download_urls"`
}

// AllowedUploadExtensions lists the document types the service accepts.
var AllowedUploadExtensions = []string{".pdf", ".epub", ".txt"}

// AllowedUpload reports whether the filename has an accepted document
// extension. The check is case-insensitive.
func AllowedUpload(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedUploadExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
