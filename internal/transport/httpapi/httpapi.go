// Package httpapi exposes the semantic pass over HTTP, the same
// EndpointFunc-plus-panic-recovery shape the teacher's own game-server API
// uses (github.com/go-chi/chi/v5 for routing, server/result for uniform
// JSON responses), so external collaborators (a code-emission back-end, a
// CLI, an LSP shell) can drive analysis without linking against the Go
// packages directly.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/0x2a-42/lelwel"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/logging"
	"github.com/0x2a-42/lelwel/internal/sema"
	"github.com/0x2a-42/lelwel/server/result"
)

// API holds the parameters needed to run the analysis endpoints.
type API struct {
	// Log is the base logger each request is tagged with a session id and
	// logged through. If nil, a development logger from logging.New is used.
	Log *zap.Logger

	// MaxErrors caps the diagnostic sink size for each analysis request. If
	// zero, diag.DefaultMaxErrors is used.
	MaxErrors int
}

// Router builds the chi router exposing this API's routes.
func (a API) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/v1/analyze", a.handleAnalyze)
	return r
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

// DiagnosticDTO is the JSON projection of one diag.Diagnostic.
type DiagnosticDTO struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
}

// RuleDTO is the JSON projection of one sema.RuleInfo.
type RuleDTO struct {
	Name       string `json:"name"`
	Class      string `json:"class"`
	Reachable  bool   `json:"reachable"`
	Productive bool   `json:"productive"`
	First      []int  `json:"first"`
	Follow     []int  `json:"follow"`
	Recovery   []int  `json:"recovery"`
}

// AnalyzeResponse is the JSON body returned by POST /v1/analyze: the
// diagnostic list plus a JSON projection of the analyzed-grammar artifact,
// per the "interfaces in §6" surface spec.md describes for downstream
// back-ends.
type AnalyzeResponse struct {
	SessionID   string          `json:"session_id"`
	HasErrors   bool            `json:"has_errors"`
	Truncated   bool            `json:"truncated"`
	Diagnostics []DiagnosticDTO `json:"diagnostics"`
	Rules       []RuleDTO       `json:"rules"`
	StartRule   string          `json:"start_rule,omitempty"`
}

func (a API) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	defer panicTo500(w, req)

	sess := lelwel.NewSession(a.logger())

	var reqBody AnalyzeRequest
	if err := parseJSON(req, &reqBody); err != nil {
		result.BadRequest("malformed request body", "%s", err.Error()).WriteResponse(w)
		return
	}

	path := reqBody.Path
	if path == "" {
		path = "<request>"
	}

	maxErrors := a.MaxErrors
	if maxErrors <= 0 {
		maxErrors = diag.DefaultMaxErrors
	}

	sink := diag.NewSink(path, maxErrors)
	_, res := sess.Analyze(sink, reqBody.Source)

	resp := projectResult(sess.ID, sink, res)
	result.OK(resp, "analyzed %s", path).WriteResponse(w)
}

func (a API) logger() *zap.Logger {
	if a.Log != nil {
		return a.Log
	}
	return logging.New()
}

func projectResult(sessionID string, sink *diag.Sink, res *sema.Result) AnalyzeResponse {
	resp := AnalyzeResponse{
		SessionID: sessionID,
		HasErrors: sink.HasErrors(),
		Truncated: sink.Truncated(),
	}

	for _, d := range sink.Sorted() {
		resp.Diagnostics = append(resp.Diagnostics, DiagnosticDTO{
			Code:     d.Code.String(),
			Severity: d.Severity.String(),
			Message:  d.Message,
			Line:     d.Range.Start.Line,
			Col:      d.Range.Start.Col,
		})
	}

	if res != nil && res.Artifact != nil {
		for _, r := range res.Artifact.Rules {
			resp.Rules = append(resp.Rules, RuleDTO{
				Name:       r.Name,
				Class:      r.Class.String(),
				Reachable:  r.Reachable,
				Productive: r.Productive,
				First:      r.First.Elements(),
				Follow:     r.Follow.Elements(),
				Recovery:   r.Recovery.Elements(),
			})
		}
		if res.Artifact.StartRule >= 0 && res.Artifact.StartRule < len(res.Artifact.Rules) {
			resp.StartRule = res.Artifact.Rules[res.Artifact.StartRule].Name
		}
	}

	return resp
}

func panicTo500(w http.ResponseWriter, req *http.Request) {
	if p := recover(); p != nil {
		result.InternalServerError("panic: %v\n%s", p, string(debug.Stack())).WriteResponse(w)
	}
}

// parseJSON decodes the request body into v, which must be a pointer. It
// requires an application/json content type, matching the teacher's own
// request-parsing helper.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}

	if err := json.Unmarshal(bodyData, v); err != nil {
		return fmt.Errorf("malformed JSON in request")
	}
	return nil
}
