package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf"
	pdferrors "github.com/a3tai/mcp-clinical-pdf/internal/pdf/errors"
	"github.com/a3tai/mcp-clinical-pdf/internal/report"
)

// formOverhead is allowed on top of the file size for the other form parts
const formOverhead = 1024 * 1024

// checkRequest is the body of POST /api/check
type checkRequest struct {
	Path      string `json:"path"`
	Type      string `json:"type"`
	Threshold int    `json:"threshold"`
	Format    string `json:"format"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.service.GetMaxFileSize()+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, format, err := parseOptions(r.FormValue("type"), r.FormValue("threshold"), r.FormValue("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := s.service.AnalyzeUpload(r.Context(), file, req)
	if err != nil {
		s.analysisError(w, err)
		return
	}

	// Reports name the upload, not the temporary file it was stored in
	name := filepath.Base(header.Filename)
	if result.Discharge != nil {
		result.Discharge.Path = name
	}
	if result.Referral != nil {
		result.Referral.Path = name
	}

	s.writeAnalysis(w, format, name, result)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body checkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}

	req, format, err := parseOptions(body.Type, "", body.Format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Path = body.Path
	req.Threshold = body.Threshold

	result, err := s.service.Analyze(r.Context(), req)
	if err != nil {
		s.analysisError(w, err)
		return
	}

	s.writeAnalysis(w, format, body.Path, result)
}

// parseOptions reads the document type, threshold and output format shared
// by both analyze endpoints. The API answers JSON unless told otherwise.
func parseOptions(docType, threshold, format string) (pdf.AnalyzeRequest, report.Format, error) {
	var req pdf.AnalyzeRequest

	t, err := pdf.ParseDocumentType(docType)
	if err != nil {
		return req, "", err
	}
	req.Type = t

	if threshold != "" {
		n, err := strconv.Atoi(threshold)
		if err != nil {
			return req, "", fmt.Errorf("threshold must be an integer: %q", threshold)
		}
		req.Threshold = n
	}

	f := report.FormatJSON
	if format != "" {
		if f, err = report.ParseFormat(format); err != nil {
			return req, "", err
		}
	}
	return req, f, nil
}

// analysisError maps extraction failures to 422 and everything else, which
// is request validation, to 400
func (s *Server) analysisError(w http.ResponseWriter, err error) {
	if _, ok := pdferrors.AsExtractionError(err); ok {
		s.log.Warn("Document extraction failed", "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) writeAnalysis(w http.ResponseWriter, format report.Format, name string, result *pdf.AnalyzeResult) {
	body, err := report.Analysis(format, name, result)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Write([]byte(body))
}

func contentType(format report.Format) string {
	switch format {
	case report.FormatJSON:
		return "application/json"
	case report.FormatHTML:
		return "text/html; charset=utf-8"
	case report.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
