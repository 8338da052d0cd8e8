package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/pdftest"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
)

type fakeRasterizer struct{}

func (fakeRasterizer) Rasterize(_ context.Context, _ string, page int, _ float64) ([]byte, error) {
	return []byte(fmt.Sprintf("page-%d", page)), nil
}

type fakeRecognizer struct{}

func (fakeRecognizer) Recognize(context.Context, []byte, ocr.PageSegMode) (string, error) {
	return "", nil
}

// brokenDocument opens fine but has no readable text layer
type brokenDocument struct{}

func (brokenDocument) NumPages() int { return 1 }
func (brokenDocument) PageText(int) (string, error) {
	return "", errors.New("corrupt content stream")
}
func (brokenDocument) Widgets(int) ([]wrapper.Widget, error)         { return nil, nil }
func (brokenDocument) Annotations(int) ([]wrapper.Annotation, error) { return nil, nil }
func (brokenDocument) ContentStream(int) ([]byte, error)             { return nil, nil }
func (brokenDocument) TextInRect(int, wrapper.Rectangle) (string, error) {
	return "", nil
}
func (brokenDocument) Close() error { return nil }

func summaryPDF() []byte {
	return pdftest.Build(
		pdftest.Page{Lines: []pdftest.Line{
			{X: 72, Y: 720, Text: "Discharge Summary"},
			{X: 72, Y: 700, Text: "Patient admitted with high fever and body ache."},
		}},
		pdftest.Page{Lines: []pdftest.Line{
			{X: 72, Y: 720, Text: "Final Diagnosis"},
			{X: 72, Y: 700, Text: "Dengue fever with thrombocytopenia"},
		}},
	)
}

func newTestServer(t *testing.T, dir string, opts Options, opener wrapper.Opener) *Server {
	t.Helper()
	if opener == nil {
		opener = wrapper.NewOpener()
	}
	service, err := pdf.NewService(pdf.Options{
		MaxFileSize: 1024 * 1024,
		Directory:   dir,
		Opener:      opener,
		Rasterizer:  fakeRasterizer{},
		Recognizer:  fakeRecognizer{},
	})
	require.NoError(t, err)
	return NewServer(service, opts)
}

func multipartRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, t.TempDir(), Options{APIKey: "secret"}, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyzeUpload_JSON(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	s := newTestServer(t, t.TempDir(), Options{}, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, multipartRequest(t, "../../summary.pdf", summaryPDF(), map[string]string{"type": "discharge"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result pdf.AnalyzeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, pdf.DocumentTypeDischargeSummary, result.Type)
	require.NotNil(t, result.Discharge)
	assert.Equal(t, "summary.pdf", result.Discharge.Path)
	assert.Equal(t, 2, result.Discharge.PageCount)
	assert.Contains(t, result.Discharge.Missing, "Culture Report")
}

func TestAnalyzeUpload_Formats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{format: "markdown", contentType: "text/markdown; charset=utf-8", contains: "| Section | Status | Pages | Headings Used |"},
		{format: "html", contentType: "text/html; charset=utf-8", contains: "<table>"},
		{format: "text", contentType: "text/plain; charset=utf-8", contains: "Discharge summary check: summary.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			s := newTestServer(t, t.TempDir(), Options{}, nil)

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, multipartRequest(t, "summary.pdf", summaryPDF(), map[string]string{
				"type":   "discharge_summary",
				"format": tt.format,
			}))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestAnalyzeUpload_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		fields  map[string]string
		wantErr string
	}{
		{name: "missing file", fields: map[string]string{"type": "auto"}, wantErr: "file is required"},
		{name: "bad type", data: summaryPDF(), fields: map[string]string{"type": "prescription"}, wantErr: "unsupported document type"},
		{name: "non-numeric threshold", data: summaryPDF(), fields: map[string]string{"threshold": "high"}, wantErr: "threshold must be an integer"},
		{name: "threshold out of range", data: summaryPDF(), fields: map[string]string{"threshold": "40"}, wantErr: "threshold must be between 60 and 100"},
		{name: "bad format", data: summaryPDF(), fields: map[string]string{"format": "docx"}, wantErr: "unsupported format"},
		{name: "not a pdf", data: []byte("plain text"), wantErr: "PDF header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, t.TempDir(), Options{}, nil)

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, multipartRequest(t, "upload.pdf", tt.data, tt.fields))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantErr)
		})
	}
}

func TestAnalyzeUpload_ExtractionFailure(t *testing.T) {
	opener := wrapper.OpenerFunc(func(string) (wrapper.Document, error) {
		return brokenDocument{}, nil
	})
	s := newTestServer(t, t.TempDir(), Options{}, opener)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, multipartRequest(t, "upload.pdf", []byte("%PDF-1.4 minimal"), map[string]string{"type": "discharge"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec), "corrupt content stream")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.pdf"), summaryPDF(), 0o644))
	s := newTestServer(t, dir, Options{}, nil)

	t.Run("inside directory", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check",
			strings.NewReader(`{"path":"summary.pdf","threshold":80}`)))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var result pdf.AnalyzeResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Detected)
		require.NotNil(t, result.Discharge)
		assert.Equal(t, 80, result.Discharge.Threshold)
	})

	t.Run("outside directory", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check",
			strings.NewReader(`{"path":"/etc/passwd"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec), "security validation failed")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "path is required", decodeError(t, rec))
	})
}

func TestAuthAndMCPMount(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	s := newTestServer(t, t.TempDir(), Options{APIKey: "secret", MCP: mcpHandler}, nil)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "basic auth", header: "Basic c2VjcmV0", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer secret", want: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMCPNotMountedWithoutHandler(t *testing.T) {
	s := newTestServer(t, t.TempDir(), Options{}, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
