// Package client implements the REST client for the speed reading video
// generator API. It covers the job endpoints under /api/jobs and the
// artifact endpoints under /api/videos.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// Client talks to one server. It is stateless and safe for concurrent use.
type Client struct {
	http     *http.Client
	download *http.Client // No global timeout, video bodies can be large
	baseURL  string
}

// New creates a client for the API served at baseURL.
func New(baseURL string) *Client {
	return NewWithTimeout(baseURL, 20*time.Second)
}

// NewWithTimeout creates a client with a custom per-request timeout for the
// JSON endpoints. Downloads are governed by their context instead.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		download: &http.Client{},
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// CreateJob uploads a document and starts a conversion job. The file part is
// read fully before the request is sent. A nil params submits the server
// defaults; params are passed through as-is, the server has the final say.
func (c *Client) CreateJob(ctx context.Context, r io.Reader, filename string, params *models.VideoParams) (*models.Job, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	paramsJSON := "{}"
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		paramsJSON = string(raw)
	}
	if err := mw.WriteField("params", paramsJSON); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/jobs/", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}
	var job models.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding create response: %w", err)
	}
	return &job, nil
}

// GetJob fetches the current snapshot of a job.
func (c *Client) GetJob(ctx context.Context, id string) (*models.Job, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/jobs/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching job %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var job models.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %w", id, err)
	}
	return &job, nil
}

// ListJobs fetches a page of jobs, newest first.
func (c *Client) ListJobs(ctx context.Context, limit, offset int) (*models.JobList, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/jobs/", c.baseURL), nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("limit", fmt.Sprintf("%d", limit))
	q.Add("offset", fmt.Sprintf("%d", offset))
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var list models.JobList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding job list: %w", err)
	}
	return &list, nil
}

// DeleteJob removes a job and its artifacts from the server. Deleting an
// unknown id returns ErrNotFound.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", fmt.Sprintf("%s/api/jobs/%s", c.baseURL, id), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// ListVideos fetches the artifact listing of a job.
func (c *Client) ListVideos(ctx context.Context, id string) (*models.VideoList, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/videos/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing videos for job %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var list models.VideoList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding video list: %w", err)
	}
	return &list, nil
}

// DownloadVideo streams one produced artifact into w and returns the number
// of bytes written. Cancellation comes from ctx, there is no read deadline.
func (c *Client) DownloadVideo(ctx context.Context, id, filename string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.DownloadURL(id, filename), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downloading %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("downloading %s: %w", filename, err)
	}
	return n, nil
}

// DownloadURL returns the stable URL of one artifact. It is derived locally,
// no request is made.
func (c *Client) DownloadURL(id, filename string) string {
	return fmt.Sprintf("%s/api/videos/%s/%s", c.baseURL, id, url.PathEscape(filename))
}
