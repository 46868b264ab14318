// CLAUDE:SUMMARY Dispatches uploaded plans to external analyzer scripts and relays their JSON with a typed error taxonomy.
// Package analyze dispatches an uploaded plan file to the matching
// external analyzer script, captures its stdout as JSON, and relays the
// document unchanged.
//
// The analyzers are collaborators, not part of this repository: a PDF
// parser and a DXF parser invoked through a Python interpreter. DWG files
// are handed to the DXF parser as a best-effort fallback since no native
// DWG analyzer exists; the fallback is recorded as a warning on the
// result.
//
// Every failure mode maps to a stable error code so HTTP callers get a
// structured object instead of a stack trace; the dispatcher itself never
// crashes on a bad subprocess.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/electrovision/planforge/extrun"
	"github.com/electrovision/planforge/plan"
)

// Code classifies a dispatch failure.
type Code string

const (
	CodeUnsupported        Code = "unsupported_extension"
	CodeInterpreterMissing Code = "interpreter_not_found"
	CodeDependencyMissing  Code = "missing_dependency"
	CodeBadInput           Code = "malformed_input_file"
	CodeBadJSON            Code = "bad_analyzer_output"
	CodeTimeout            Code = "analysis_timeout"
	CodeScriptFailed       Code = "script_failed"
)

// Error is a structured dispatch failure.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// Raw carries the analyzer's output when it could not be parsed, for
	// debuggability.
	Raw string `json:"raw,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("analyze: %s: %s", e.Code, e.Message)
}

// Result is a successful analysis: the analyzer's JSON document plus
// dispatch metadata.
type Result struct {
	Data     json.RawMessage `json:"data"`
	Script   string          `json:"script"`
	Warning  string          `json:"warning,omitempty"`
	Duration time.Duration   `json:"-"`
}

// Config configures a Dispatcher.
type Config struct {
	// Interpreter runs the analyzer scripts (default: "python3").
	Interpreter string

	// ScriptDir holds the analyzer scripts (default: "python").
	ScriptDir string

	// Timeout bounds one analysis subprocess (default: 30s).
	Timeout time.Duration

	// Logger for dispatch messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Interpreter == "" {
		c.Interpreter = "python3"
	}
	if c.ScriptDir == "" {
		c.ScriptDir = "python"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Dispatcher selects and runs analyzer scripts.
type Dispatcher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Dispatcher with the given configuration.
func New(cfg Config) *Dispatcher {
	cfg.defaults()
	return &Dispatcher{cfg: cfg, logger: cfg.Logger}
}

// scriptFor maps a file kind to its analyzer script and an optional
// fallback warning.
func (d *Dispatcher) scriptFor(path string) (script, warning string, err *Error) {
	kind, ok := plan.KindForPath(path)
	if !ok {
		return "", "", &Error{
			Code:    CodeUnsupported,
			Message: fmt.Sprintf("no analyzer for %q", filepath.Ext(path)),
		}
	}
	switch kind {
	case plan.KindPDF:
		return "parse_pdf.py", "", nil
	case plan.KindDXF:
		return "parse_dxf.py", "", nil
	case plan.KindDWG:
		return "parse_dxf.py", "dwg is not natively parsed; analyzed via the dxf parser (best effort)", nil
	default:
		return "", "", &Error{
			Code:    CodeUnsupported,
			Message: fmt.Sprintf("no analyzer for %s files", kind),
		}
	}
}

// File runs the analyzer matching path's extension and returns its JSON
// output unchanged. All failures come back as *Error.
func (d *Dispatcher) File(ctx context.Context, path string) (*Result, *Error) {
	script, warning, derr := d.scriptFor(path)
	if derr != nil {
		return nil, derr
	}
	if warning != "" {
		d.logger.Warn("analyzer fallback", "file", path, "warning", warning)
	}

	scriptPath := filepath.Join(d.cfg.ScriptDir, script)
	d.logger.Info("dispatching analysis", "file", path, "script", script)

	res, err := extrun.Run(ctx, d.cfg.Timeout, d.cfg.Interpreter, scriptPath, path)
	if err != nil {
		return nil, d.classify(err, res)
	}

	var doc json.RawMessage
	if jsonErr := json.Unmarshal(res.Stdout, &doc); jsonErr != nil {
		return nil, &Error{
			Code:    CodeBadJSON,
			Message: fmt.Sprintf("analyzer produced invalid JSON: %v", jsonErr),
			Raw:     truncate(string(res.Stdout), 4096),
		}
	}

	return &Result{Data: doc, Script: script, Warning: warning, Duration: res.Duration}, nil
}

// classify maps a subprocess failure onto the error taxonomy.
func (d *Dispatcher) classify(err error, res *extrun.Result) *Error {
	switch {
	case errors.Is(err, extrun.ErrNotFound):
		return &Error{
			Code:    CodeInterpreterMissing,
			Message: fmt.Sprintf("%s not found on PATH", d.cfg.Interpreter),
		}
	case errors.Is(err, extrun.ErrTimeout):
		return &Error{
			Code:    CodeTimeout,
			Message: fmt.Sprintf("analyzer exceeded %s", d.cfg.Timeout),
		}
	}

	stderr := ""
	if res != nil {
		stderr = string(res.Stderr)
	}
	if code, ok := classifyStderr(stderr); ok {
		return &Error{Code: code, Message: firstLine(stderr)}
	}
	return &Error{
		Code:    CodeScriptFailed,
		Message: fmt.Sprintf("analyzer exited with an error: %v", err),
		Raw:     truncate(stderr, 4096),
	}
}

// classifyStderr scans analyzer stderr for known Python failure patterns.
func classifyStderr(stderr string) (Code, bool) {
	switch {
	case strings.Contains(stderr, "ModuleNotFoundError"),
		strings.Contains(stderr, "ImportError"):
		return CodeDependencyMissing, true
	case strings.Contains(stderr, "FileDataError"),
		strings.Contains(stderr, "DXFStructureError"),
		strings.Contains(stderr, "cannot open broken document"):
		return CodeBadInput, true
	}
	return "", false
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && (strings.Contains(line, "Error") || strings.Contains(line, "error")) {
			return line
		}
	}
	return strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…(truncated)"
}
