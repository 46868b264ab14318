package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/electrovision/planforge/analyze"
	"github.com/electrovision/planforge/router"
)

// stubAnalyzer returns a canned result or error without any subprocess.
type stubAnalyzer struct {
	res *analyze.Result
	err *analyze.Error
}

func (a *stubAnalyzer) File(_ context.Context, _ string) (*analyze.Result, *analyze.Error) {
	return a.res, a.err
}

func newTestServer(t *testing.T, an Analyzer) (*Server, string, string) {
	t.Helper()
	uploadDir := t.TempDir()
	sourceDir := t.TempDir()
	rt := router.New(router.Config{BaseDir: sourceDir})
	srv := New(Config{UploadDir: uploadDir}, rt, an)
	return srv, uploadDir, sourceDir
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadSuccess(t *testing.T) {
	an := &stubAnalyzer{res: &analyze.Result{
		Data:   json.RawMessage(`{"components":[{"type":"outlet"}]}`),
		Script: "parse_pdf.py",
	}}
	srv, uploadDir, sourceDir := newTestServer(t, an)

	body, ctype := multipartBody(t, "plan", "site.pdf", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if string(resp.Data) != `{"components":[{"type":"outlet"}]}` {
		t.Fatalf("data = %s", resp.Data)
	}
	if resp.FileInfo.OriginalName != "site.pdf" || resp.FileInfo.Kind != "pdf" {
		t.Fatalf("fileInfo = %+v", resp.FileInfo)
	}
	if !strings.HasSuffix(resp.FileInfo.StoredName, ".pdf") {
		t.Fatalf("stored name lost the extension: %q", resp.FileInfo.StoredName)
	}

	// Raw upload retained, routed copy placed under pdf/.
	if _, err := os.Stat(filepath.Join(uploadDir, resp.FileInfo.StoredName)); err != nil {
		t.Fatalf("stored upload missing: %v", err)
	}
	if !strings.HasPrefix(resp.FileInfo.RoutedTo, filepath.Join(sourceDir, "pdf")) {
		t.Fatalf("routed to %q", resp.FileInfo.RoutedTo)
	}
	if _, err := os.Stat(resp.FileInfo.RoutedTo); err != nil {
		t.Fatalf("routed copy missing: %v", err)
	}
}

func TestUploadNoFile(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" || resp.Timestamp == "" {
		t.Fatalf("error envelope incomplete: %+v", resp)
	}
}

func TestUploadUnsupportedExtension(t *testing.T) {
	srv, uploadDir, _ := newTestServer(t, &stubAnalyzer{})

	body, ctype := multipartBody(t, "plan", "setup.exe", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != string(analyze.CodeUnsupported) || resp.File != "setup.exe" {
		t.Fatalf("error = %+v", resp)
	}

	// Rejected before anything touches disk.
	entries, _ := os.ReadDir(uploadDir)
	if len(entries) != 0 {
		t.Fatalf("upload dir not empty after rejection: %v", entries)
	}
}

func TestUploadAnalyzerFailure(t *testing.T) {
	an := &stubAnalyzer{err: &analyze.Error{
		Code:    analyze.CodeDependencyMissing,
		Message: "No module named 'ezdxf'",
	}}
	srv, _, _ := newTestServer(t, an)

	body, ctype := multipartBody(t, "plan", "floor.dxf", []byte("0\nSECTION\n"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != string(analyze.CodeDependencyMissing) {
		t.Fatalf("code = %q", resp.Code)
	}
	if resp.File != "floor.dxf" {
		t.Fatalf("file = %q", resp.File)
	}
}

func TestUploadDWGWarningRelayed(t *testing.T) {
	an := &stubAnalyzer{res: &analyze.Result{
		Data:    json.RawMessage(`{}`),
		Script:  "parse_dxf.py",
		Warning: "dwg is not natively parsed; analyzed via the dxf parser (best effort)",
	}}
	srv, _, _ := newTestServer(t, an)

	body, ctype := multipartBody(t, "plan", "legacy.dwg", []byte("AC1032"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp uploadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Warning == "" {
		t.Fatal("dwg fallback warning dropped from response")
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status     string   `json:"status"`
		Extensions []string `json:"extensions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || len(resp.Extensions) != 11 {
		t.Fatalf("health = %+v", resp)
	}
}
