// Drives the fake service through the real API client, end to end.

package fakeapi

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vrsandeep/speedread-go/internal/client"
	"github.com/vrsandeep/speedread-go/internal/models"
)

func setupFake(t *testing.T) (*Server, *client.Client) {
	t.Helper()
	f := New()
	srv := httptest.NewServer(f.Router())
	t.Cleanup(srv.Close)
	return f, client.New(srv.URL)
}

func TestJobLifecycle(t *testing.T) {
	f, c := setupFake(t)
	ctx := context.Background()

	job, err := c.CreateJob(ctx, strings.NewReader("one two three"), "book.txt", nil)
	if err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}
	if len(job.ID) != 8 {
		t.Errorf("Expected an 8 character job id, got '%s'", job.ID)
	}
	if job.Status != models.StatusPending || job.CurrentStep != "Queued" {
		t.Errorf("Unexpected fresh job: %+v", job)
	}

	if err := f.Advance(job.ID); err != nil {
		t.Fatalf("Advance() failed: %v", err)
	}
	got, err := c.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() failed: %v", err)
	}
	if got.Status != models.StatusProcessing || got.ProgressPercent != 40 {
		t.Errorf("Expected processing at 40%%, got %s at %d%%", got.Status, got.ProgressPercent)
	}
	if got.StartedAt == nil {
		t.Error("Expected started_at after the first advance")
	}

	f.Advance(job.ID)
	f.Advance(job.ID) // Crosses 100 and completes.

	got, err = c.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() failed: %v", err)
	}
	if got.Status != models.StatusCompleted || got.ProgressPercent != 100 {
		t.Errorf("Expected completed at 100%%, got %s at %d%%", got.Status, got.ProgressPercent)
	}
	if got.CompletedAt == nil || got.CurrentStep != "Complete" {
		t.Errorf("Terminal bookkeeping missing: %+v", got)
	}
	if len(got.OutputFiles) != 1 || got.OutputFiles[0] != "book.mp4" {
		t.Errorf("Expected output file 'book.mp4', got %v", got.OutputFiles)
	}

	videos, err := c.ListVideos(ctx, job.ID)
	if err != nil {
		t.Fatalf("ListVideos() failed: %v", err)
	}
	if len(videos.Files) != 1 || videos.Files[0] != "book.mp4" {
		t.Errorf("Unexpected video listing: %+v", videos)
	}
	if videos.DownloadURLs[0] != "/api/videos/"+job.ID+"/book.mp4" {
		t.Errorf("Unexpected download url: %s", videos.DownloadURLs[0])
	}

	var buf bytes.Buffer
	if _, err := c.DownloadVideo(ctx, job.ID, "book.mp4", &buf); err != nil {
		t.Fatalf("DownloadVideo() failed: %v", err)
	}
	if buf.String() != "FAKE MP4 book.mp4" {
		t.Errorf("Unexpected artifact content: %q", buf.String())
	}

	if err := c.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("DeleteJob() failed: %v", err)
	}
	if _, err := c.GetJob(ctx, job.ID); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := f.Advance(job.ID); err == nil {
		t.Error("Advance() of a deleted job should fail")
	}
}

func TestCreateJobValidation(t *testing.T) {
	_, c := setupFake(t)
	ctx := context.Background()

	t.Run("Unsupported extension", func(t *testing.T) {
		_, err := c.CreateJob(ctx, strings.NewReader("x"), "slides.pptx", nil)
		var ve *client.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		if !strings.Contains(ve.Detail, "Unsupported file type") {
			t.Errorf("Unexpected detail: %s", ve.Detail)
		}
	})

	t.Run("Out of range params", func(t *testing.T) {
		params := models.DefaultVideoParams()
		params.FPS = 999
		_, err := c.CreateJob(ctx, strings.NewReader("x"), "book.txt", params)
		var ve *client.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		if !strings.Contains(ve.Detail, "fps") {
			t.Errorf("Unexpected detail: %s", ve.Detail)
		}
	})
}

func TestFailedJob(t *testing.T) {
	f, c := setupFake(t)
	ctx := context.Background()

	job, err := c.CreateJob(ctx, strings.NewReader("x"), "scan.pdf", nil)
	if err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}
	if err := f.Fail(job.ID, "Could not extract text from document"); err != nil {
		t.Fatalf("Fail() failed: %v", err)
	}

	got, err := c.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() failed: %v", err)
	}
	if got.Status != models.StatusFailed || got.CurrentStep != "Failed" {
		t.Errorf("Expected failed job, got %+v", got)
	}
	if got.ErrorMessage != "Could not extract text from document" {
		t.Errorf("Unexpected error message: %s", got.ErrorMessage)
	}
}

func TestListJobsPagination(t *testing.T) {
	_, c := setupFake(t)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if _, err := c.CreateJob(ctx, strings.NewReader("x"), name, nil); err != nil {
			t.Fatalf("CreateJob(%s) failed: %v", name, err)
		}
	}

	page, err := c.ListJobs(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListJobs() failed: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("Expected total 3, got %d", page.Total)
	}
	if len(page.Jobs) != 2 || page.Jobs[0].Filename != "c.txt" || page.Jobs[1].Filename != "b.txt" {
		t.Errorf("Expected newest first [c.txt b.txt], got %+v", page.Jobs)
	}

	page, err = c.ListJobs(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListJobs() with offset failed: %v", err)
	}
	if len(page.Jobs) != 1 || page.Jobs[0].Filename != "a.txt" {
		t.Errorf("Expected [a.txt] at offset 2, got %+v", page.Jobs)
	}
}

func TestAutoAdvance(t *testing.T) {
	f, c := setupFake(t)
	ctx := context.Background()
	f.AutoAdvance(60)

	job, err := c.CreateJob(ctx, strings.NewReader("x"), "book.epub", nil)
	if err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}

	got, err := c.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() failed: %v", err)
	}
	if got.Status != models.StatusProcessing || got.ProgressPercent != 60 {
		t.Errorf("Expected processing at 60%% after one poll, got %s at %d%%", got.Status, got.ProgressPercent)
	}

	got, err = c.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() failed: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("Expected completed after the second poll, got %s", got.Status)
	}
	if len(got.OutputFiles) != 1 || got.OutputFiles[0] != "book.mp4" {
		t.Errorf("Expected auto-generated artifact, got %v", got.OutputFiles)
	}
}
