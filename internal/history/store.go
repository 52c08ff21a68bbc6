// Data access layer for the submission history, keeping SQL separate from
// command logic.

package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// ErrNotFound is returned when no recorded submission matches.
var ErrNotFound = errors.New("submission not found")

// Submission is one locally recorded job.
type Submission struct {
	ID              int64
	JobID           string
	Filename        string
	ServerURL       string
	Status          models.JobStatus
	ProgressPercent int
	CurrentStep     string
	ErrorMessage    string
	OutputFiles     []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store provides all functions to interact with the history database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a freshly created job. Recording the same job id again
// refreshes the stored snapshot instead of failing.
func (s *Store) Record(job *models.Job, serverURL string) error {
	files, err := marshalFiles(job.OutputFiles)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO submissions (job_id, filename, server_url, status, progress_percent, current_step, error_message, output_files, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			progress_percent = excluded.progress_percent,
			current_step = excluded.current_step,
			error_message = excluded.error_message,
			output_files = excluded.output_files,
			updated_at = excluded.updated_at`,
		job.ID, job.Filename, serverURL, string(job.Status), job.ProgressPercent,
		job.CurrentStep, job.ErrorMessage, files, now, now)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", job.ID, err)
	}
	return nil
}

// UpdateFromJob refreshes the stored snapshot of a recorded job. Updating a
// job that was never recorded returns ErrNotFound.
func (s *Store) UpdateFromJob(job *models.Job) error {
	files, err := marshalFiles(job.OutputFiles)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE submissions
		SET status = ?, progress_percent = ?, current_step = ?, error_message = ?, output_files = ?, updated_at = ?
		WHERE job_id = ?`,
		string(job.Status), job.ProgressPercent, job.CurrentStep, job.ErrorMessage,
		files, time.Now(), job.ID)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", job.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
	}
	return nil
}

// Get returns the recorded submission for a job id.
func (s *Store) Get(jobID string) (*Submission, error) {
	row := s.db.QueryRow(`
		SELECT id, job_id, filename, server_url, status, progress_percent, current_step, error_message, output_files, created_at, updated_at
		FROM submissions WHERE job_id = ?`, jobID)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	return sub, err
}

// Latest returns the most recently submitted job.
func (s *Store) Latest() (*Submission, error) {
	row := s.db.QueryRow(`
		SELECT id, job_id, filename, server_url, status, progress_percent, current_step, error_message, output_files, created_at, updated_at
		FROM submissions ORDER BY created_at DESC, id DESC LIMIT 1`)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return sub, err
}

// Recent returns up to limit submissions, newest first.
func (s *Store) Recent(limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, job_id, filename, server_url, status, progress_percent, current_step, error_message, output_files, created_at, updated_at
		FROM submissions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Delete removes the record of a job. Deleting an unknown job is fine.
func (s *Store) Delete(jobID string) error {
	_, err := s.db.Exec("DELETE FROM submissions WHERE job_id = ?", jobID)
	return err
}

// Prune drops submissions created more than retention ago and reports how
// many were removed.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.db.Exec("DELETE FROM submissions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func marshalFiles(files []string) (string, error) {
	if files == nil {
		files = []string{}
	}
	raw, err := json.Marshal(files)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*Submission, error) {
	var sub Submission
	var status, files string
	err := row.Scan(&sub.ID, &sub.JobID, &sub.Filename, &sub.ServerURL, &status,
		&sub.ProgressPercent, &sub.CurrentStep, &sub.ErrorMessage, &files,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.Status = models.JobStatus(status)
	if files != "" {
		if err := json.Unmarshal([]byte(files), &sub.OutputFiles); err != nil {
			return nil, fmt.Errorf("corrupt output_files for job %s: %w", sub.JobID, err)
		}
	}
	return &sub, nil
}
