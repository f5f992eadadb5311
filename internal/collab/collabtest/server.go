// Package collabtest provides an in-process fake of the cleanup and render
// service for tests and offline runs.
package collabtest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"room-stager/internal/collab"
)

// Options controls the fake's behavior.
type Options struct {
	// PendingPolls is how many times a job reports pending before it finishes.
	PendingPolls int
	// NeverComplete keeps every job pending forever.
	NeverComplete bool
	// FailCleanup makes cleanup jobs finish as failed.
	FailCleanup bool
	// FailRender makes render jobs finish as failed.
	FailRender bool
	// CleanupStatus, if set, is returned as the HTTP status of cleanup submissions.
	CleanupStatus int
	// FlakyStatus makes the first request to each route fail with this status.
	FlakyStatus int
}

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
}

type job struct {
	kind   string
	room   string
	polls  int
	failed bool
}

// Server is a running fake.
type Server struct {
	*httptest.Server

	opts Options

	mu        sync.Mutex
	requests  []Request
	uploads   map[string][]byte
	confirmed map[string]bool
	masks     map[string][]byte
	renders   []collab.PlacementSubmission
	jobs      map[string]*job
	flaked    map[string]bool
}

// NewServer starts a fake on a random local port. Call Close when done.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:      opts,
		uploads:   make(map[string][]byte),
		confirmed: make(map[string]bool),
		masks:     make(map[string][]byte),
		jobs:      make(map[string]*job),
		flaked:    make(map[string]bool),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)

	r.Post("/rooms/start", s.handleStart)
	r.Put("/uploads/{roomID}", s.handleUpload)
	r.Post("/rooms/{roomID}/confirm", s.handleConfirm)
	r.Post("/rooms/{roomID}/cleanup", s.handleCleanup)
	r.Post("/renders", s.handleRender)
	r.Get("/jobs/{jobID}", s.handleJob)
	r.Get("/files/{jobID}", s.handleFile)
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path})
		flake := s.opts.FlakyStatus != 0 && !s.flaked[r.Method+r.URL.Path]
		if flake {
			s.flaked[r.Method+r.URL.Path] = true
		}
		s.mu.Unlock()

		if flake {
			http.Error(w, "try again", s.opts.FlakyStatus)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and a path prefix.
func (s *Server) Count(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// Mask returns the last mask PNG submitted for a room.
func (s *Server) Mask(roomID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.masks[roomID]
}

// Renders returns every placement submission received.
func (s *Server) Renders() []collab.PlacementSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]collab.PlacementSubmission(nil), s.renders...)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	writeJSON(w, http.StatusOK, collab.RoomSession{
		RoomSessionID: id,
		UploadURL:     s.URL + "/uploads/" + id,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		http.Error(w, "empty upload", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.uploads[id] = data
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[id]; !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	s.confirmed[id] = true
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if s.opts.CleanupStatus != 0 {
		http.Error(w, "cleanup unavailable", s.opts.CleanupStatus)
		return
	}
	id := chi.URLParam(r, "roomID")

	var sub collab.MaskSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	mask, err := decodeDataURL(sub.MaskImage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if !s.confirmed[id] {
		s.mu.Unlock()
		http.Error(w, "room not confirmed", http.StatusConflict)
		return
	}
	s.masks[id] = mask
	jobID := s.newJob("cleanup", id, s.opts.FailCleanup)
	s.mu.Unlock()

	writeJSON(w, http.StatusAccepted, collab.JobResult{Status: collab.StatusPending, JobID: jobID})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var sub collab.PlacementSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if _, ok := s.uploads[sub.RoomSessionID]; !ok {
		s.mu.Unlock()
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	s.renders = append(s.renders, sub)
	jobID := s.newJob("render", sub.RoomSessionID, s.opts.FailRender)
	s.mu.Unlock()

	writeJSON(w, http.StatusAccepted, collab.JobResult{Status: collab.StatusPending, JobID: jobID})
}

// newJob must be called with s.mu held.
func (s *Server) newJob(kind, room string, failed bool) string {
	id := uuid.NewString()
	s.jobs[id] = &job{kind: kind, room: room, failed: failed}
	return id
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	s.mu.Lock()
	j, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	j.polls++
	res := collab.JobResult{Status: collab.StatusPending, JobID: id}
	switch {
	case s.opts.NeverComplete || j.polls <= s.opts.PendingPolls:
	case j.failed:
		res.Status = collab.StatusFailed
		res.Error = j.kind + " failed"
	default:
		res.Status = collab.StatusCompleted
		res.ImageURL = "/files/" + id
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, res)
}

// handleFile serves the result of a finished job: the uploaded room photo
// with masked pixels painted over for cleanup jobs.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	s.mu.Lock()
	j, ok := s.jobs[id]
	var photo, mask []byte
	if ok {
		photo = s.uploads[j.room]
		mask = s.masks[j.room]
	}
	s.mu.Unlock()
	if !ok || photo == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	out := photo
	if j.kind == "cleanup" && mask != nil {
		if cleaned, err := paintMask(photo, mask); err == nil {
			out = cleaned
		}
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(out)
}

func paintMask(photo, mask []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, err
	}
	m, err := png.Decode(bytes.NewReader(mask))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	fill := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if g, ok := m.At(x, y).(color.Gray); ok && g.Y > 0 {
				dst.Set(x, y, fill)
				continue
			}
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeDataURL(s string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("mask must be a PNG data URL")
	}
	data, err := base64.StdEncoding.DecodeString(s[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("invalid mask encoding: %w", err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("mask is not a PNG: %w", err)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
