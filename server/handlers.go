// CLAUDE:SUMMARY Upload and health handlers: store, route, analyze, relay analyzer JSON or a structured error.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/electrovision/planforge/analyze"
	"github.com/electrovision/planforge/observability"
	"github.com/electrovision/planforge/plan"
)

// fileInfo is the metadata block returned alongside a successful analysis.
type fileInfo struct {
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	Kind         plan.Kind `json:"kind"`
	SizeBytes    int64     `json:"sizeBytes"`
	RoutedTo     string    `json:"routedTo"`
}

type uploadResponse struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Warning  string          `json:"warning,omitempty"`
	FileInfo fileInfo        `json:"fileInfo"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
	File      string `json:"file"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"extensions": plan.AcceptedExtensions(),
	})
}

// handleUpload receives one multipart plan file, stores it, routes a copy
// into the source tree, and relays the analyzer's JSON.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("plan")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "", "",
				fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadBytes>>20))
			return
		}
		s.writeError(w, http.StatusBadRequest, "", "", "no file attached under field 'plan'")
		return
	}
	defer file.Close()

	originalName := filepath.Base(header.Filename)
	if originalName == "" || originalName == "." {
		s.writeError(w, http.StatusBadRequest, "", "", "empty file name")
		return
	}
	kind, ok := plan.KindForPath(originalName)
	if !ok {
		s.writeError(w, http.StatusUnsupportedMediaType, originalName, string(analyze.CodeUnsupported),
			fmt.Sprintf("unsupported file type %q", filepath.Ext(originalName)))
		return
	}

	storedPath, size, err := s.store(file, originalName)
	if err != nil {
		s.logger.Error("store upload failed", "file", originalName, "error", err)
		s.writeError(w, http.StatusInternalServerError, originalName, "", "could not store upload")
		return
	}
	storedName := filepath.Base(storedPath)

	placement, err := s.router.Place(storedPath)
	if err != nil {
		s.logger.Error("route upload failed", "file", originalName, "error", err)
		s.writeError(w, http.StatusInternalServerError, originalName, "", "could not route upload")
		return
	}

	// Bounded analyzer concurrency: queue here instead of forking an
	// interpreter per in-flight upload.
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-r.Context().Done():
		return
	}

	res, derr := s.analyzer.File(r.Context(), storedPath)
	if derr != nil {
		s.record(r, observability.UploadAnalysis{
			OriginalName: originalName,
			StoredName:   storedName,
			Kind:         string(kind),
			SizeBytes:    size,
			Status:       "error",
			ErrorCode:    string(derr.Code),
		})
		s.writeError(w, http.StatusInternalServerError, originalName, string(derr.Code), derr.Message)
		return
	}

	s.record(r, observability.UploadAnalysis{
		OriginalName: originalName,
		StoredName:   storedName,
		Kind:         string(kind),
		SizeBytes:    size,
		Duration:     res.Duration,
		Status:       "ok",
	})

	writeJSON(w, http.StatusOK, uploadResponse{
		Status:  "success",
		Data:    res.Data,
		Warning: res.Warning,
		FileInfo: fileInfo{
			OriginalName: originalName,
			StoredName:   storedName,
			Kind:         kind,
			SizeBytes:    size,
			RoutedTo:     placement.Path,
		},
	})
}

// store writes the upload under a generated name that keeps the original
// extension, via temp-then-rename.
func (s *Server) store(src io.Reader, originalName string) (string, int64, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	name := s.newID() + strings.ToLower(filepath.Ext(originalName))
	dest := filepath.Join(s.cfg.UploadDir, name)

	tmp, err := os.CreateTemp(s.cfg.UploadDir, ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, fmt.Errorf("rename into place: %w", err)
	}
	return dest, size, nil
}

func (s *Server) record(r *http.Request, a observability.UploadAnalysis) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordAnalysis(r.Context(), a)
}

func (s *Server) writeError(w http.ResponseWriter, status int, file, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		File:      file,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
