// Package fakeapi is an in-memory stand-in for the speed reading video
// generator service, used by tests and for local development. It keeps the
// job bookkeeping honest (ids, statuses, listing, artifacts) but performs no
// document parsing and no rendering.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// Server holds the in-memory job table.
type Server struct {
	mu          sync.Mutex
	jobs        map[string]*models.Job
	order       []string                     // Creation order, newest last
	videos      map[string]map[string][]byte // job id -> filename -> content
	autoAdvance int                          // Percent per poll, 0 means manual control
}

// New creates an empty fake server.
func New() *Server {
	return &Server{
		jobs:   make(map[string]*models.Job),
		videos: make(map[string]map[string][]byte),
	}
}

// Router returns the HTTP surface of the fake service. The routes and error
// bodies match the real server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/jobs/", s.handleCreateJob)
	r.Get("/api/jobs/", s.handleListJobs)
	r.Get("/api/jobs/{jobID}", s.handleGetJob)
	r.Delete("/api/jobs/{jobID}", s.handleDeleteJob)

	r.Get("/api/videos/{jobID}", s.handleListVideos)
	r.Get("/api/videos/{jobID}/{filename}", s.handleDownloadVideo)

	return r
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondDetail(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondDetail writes the service's error shape, {"detail": "..."}.
func respondDetail(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"detail": message})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	if !models.AllowedUpload(header.Filename) {
		ext := filepath.Ext(header.Filename)
		respondDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Unsupported file type %q. Supported: .pdf, .epub, .txt", ext))
		return
	}

	params := models.DefaultVideoParams()
	if raw := r.FormValue("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), params); err != nil {
			respondDetail(w, http.StatusBadRequest, "Invalid params JSON: "+err.Error())
			return
		}
	}
	if err := params.Validate(); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid params: "+err.Error())
		return
	}

	// Drain the upload like the real server would.
	if _, err := io.Copy(io.Discard, file); err != nil {
		respondDetail(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	job := &models.Job{
		ID:          uuid.New().String()[:8],
		Status:      models.StatusPending,
		Filename:    header.Filename,
		Params:      params,
		CurrentStep: "Queued",
		OutputFiles: []string{},
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	resp := job.Clone()
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if ok && s.autoAdvance > 0 {
		s.advanceLocked(job, s.autoAdvance)
	}
	var resp *models.Job
	if ok {
		resp = job.Clone()
	}
	s.mu.Unlock()

	if !ok {
		respondDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	total := len(s.order)
	list := &models.JobList{Jobs: []*models.Job{}, Total: total}
	// Newest first.
	for i := total - 1 - offset; i >= 0 && len(list.Jobs) < limit; i-- {
		list.Jobs = append(list.Jobs, s.jobs[s.order[i]].Clone())
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	_, ok := s.jobs[jobID]
	if ok {
		delete(s.jobs, jobID)
		delete(s.videos, jobID)
		for i, id := range s.order {
			if id == jobID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		respondDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	_, ok := s.jobs[jobID]
	files := make([]string, 0, len(s.videos[jobID]))
	for name := range s.videos[jobID] {
		files = append(files, name)
	}
	s.mu.Unlock()

	if !ok {
		respondDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	sort.Strings(files)

	list := &models.VideoList{JobID: jobID, Files: files, DownloadURLs: make([]string, 0, len(files))}
	for _, name := range files {
		list.DownloadURLs = append(list.DownloadURLs, fmt.Sprintf("/api/videos/%s/%s", jobID, name))
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleDownloadVideo(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	filename := chi.URLParam(r, "filename")

	s.mu.Lock()
	content, ok := s.videos[jobID][filename]
	s.mu.Unlock()

	if !ok {
		respondDetail(w, http.StatusNotFound, "Video file not found")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Write(content)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func defaultArtifact(job *models.Job) string {
	stem := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	return stem + ".mp4"
}
