package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-clinical-pdf/internal/api"
	"github.com/a3tai/mcp-clinical-pdf/internal/config"
	"github.com/a3tai/mcp-clinical-pdf/internal/descriptions"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf"
	"github.com/a3tai/mcp-clinical-pdf/internal/referral"
	"github.com/a3tai/mcp-clinical-pdf/internal/report"
)

const (
	// MCPEndpoint is where the streamable HTTP transport is mounted in server mode
	MCPEndpoint = "/mcp"

	modeAssembled = "assembled"
	modeText      = "text"

	shutdownTimeout = 10 * time.Second
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	log        *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, log *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		log:        log,
	}

	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	formatOption := mcp.WithString("format",
		mcp.Description("Output format: text, markdown, html or json"),
		mcp.Enum("text", "markdown", "html", "json"),
		mcp.DefaultString("text"),
	)

	dischargeTool := mcp.NewTool(
		"discharge_summary_check",
		mcp.WithDescription(descriptions.GetToolDescription("discharge_summary_check")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Fuzzy match threshold for headings, 60 to 100"),
			mcp.Min(60),
			mcp.Max(100),
		),
		formatOption,
	)
	s.mcpServer.AddTool(dischargeTool, s.handleDischargeSummaryCheck)

	referralTool := mcp.NewTool(
		"referral_form_extract",
		mcp.WithDescription(descriptions.GetToolDescription("referral_form_extract")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
		mcp.WithString("mode",
			mcp.Description("assembled merges OCR, signature and form field sources; text reads the text layer only"),
			mcp.Enum(modeAssembled, modeText),
			mcp.DefaultString(modeAssembled),
		),
		formatOption,
		mcp.WithBoolean("debug",
			mcp.Description("Include the OCR text of the first page"),
		),
	)
	s.mcpServer.AddTool(referralTool, s.handleReferralFormExtract)

	formFieldsTool := mcp.NewTool(
		"pdf_form_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_fields")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(formFieldsTool, s.handlePDFFormFields)

	pageTextTool := mcp.NewTool(
		"pdf_page_text",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_page_text")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
		mcp.WithString("heading",
			mcp.Description("Return only the first line fuzzy-matching this heading"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Fuzzy match threshold for heading, 60 to 100"),
			mcp.Min(60),
			mcp.Max(100),
		),
	)
	s.mcpServer.AddTool(pageTextTool, s.handlePDFPageText)

	detectTool := mcp.NewTool(
		"detect_document_type",
		mcp.WithDescription(descriptions.GetToolDescription("detect_document_type")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(detectTool, s.handleDetectDocumentType)

	validateTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handlePDFValidateFile)

	serverInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handleDischargeSummaryCheck(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := report.ParseFormat(request.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.DischargeSummaryRequest{Path: path, Threshold: request.GetInt("threshold", 0)}
	result, err := s.pdfService.CheckDischargeSummary(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if format == report.FormatJSON {
		return s.jsonResult(result)
	}

	responseText, err := report.Sections(format, result.Path, result.Sections)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(result.OCRPages) > 0 && format != report.FormatHTML {
		responseText += fmt.Sprintf("\nOCR was used for page(s): %s\n", joinInts(result.OCRPages))
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleReferralFormExtract(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := report.ParseFormat(request.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	debug := request.GetBool("debug", false)

	switch mode := request.GetString("mode", modeAssembled); mode {
	case modeAssembled:
		result, err := s.pdfService.ExtractReferral(ctx, pdf.PathRequest{Path: path})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.referralResult(format, result, debug)

	case modeText:
		result, err := s.pdfService.ReferralTextFields(ctx, pdf.PathRequest{Path: path})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if format == report.FormatJSON {
			return s.jsonResult(result)
		}
		responseText := fmt.Sprintf("Referral fields from text layer: %s\n\n", result.Path)
		responseText += report.TextFields(result.Result)
		return mcp.NewToolResultText(responseText), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported mode %q (must be %s or %s)", mode, modeAssembled, modeText)), nil
	}
}

// referralResult renders an assembled referral. Without debug the raw page
// text is left out of the response.
func (s *Server) referralResult(format report.Format, result *referral.Result, debug bool) (*mcp.CallToolResult, error) {
	out := *result
	if !debug {
		out.FullText = ""
		out.FirstPageOCR = ""
	}

	if format == report.FormatJSON {
		return s.jsonResult(&out)
	}

	responseText, err := report.Referral(format, &out)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if debug && format != report.FormatHTML {
		responseText += "\nFirst page OCR:\n" + out.FirstPageOCR + "\n"
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFFormFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.FormFields(pdf.PathRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatFormFieldsResult(result)), nil
}

func (s *Server) handlePDFPageText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if heading := request.GetString("heading", ""); heading != "" {
		match, err := s.pdfService.FindSection(ctx, pdf.FindSectionRequest{
			Path:      path,
			Heading:   heading,
			Threshold: request.GetInt("threshold", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(s.formatSectionMatch(match)), nil
	}

	result, err := s.pdfService.PageText(ctx, pdf.PathRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPageTextResult(result)), nil
}

func (s *Server) handleDetectDocumentType(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.DetectDocumentType(ctx, pdf.PathRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Document type of %s: %s", result.Path, result.Type)
	if result.Keyword != "" {
		responseText += fmt.Sprintf(" (found keyword %q)", result.Keyword)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ValidateFile(pdf.PathRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable", result.Path)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

func (s *Server) jsonResult(v any) (*mcp.CallToolResult, error) {
	responseText, err := report.JSON(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(responseText), nil
}

// Formatting methods
func (s *Server) formatFormFieldsResult(result *pdf.FormFieldsResult) string {
	if len(result.Fields) == 0 {
		return fmt.Sprintf("No form fields found in %s", result.Path)
	}

	text := fmt.Sprintf("Found %d form field(s) in %s\n\n", len(result.Fields), result.Path)
	for i, field := range result.Fields {
		value := field.Value
		if value == "" {
			value = "(empty)"
		}
		text += fmt.Sprintf("%d. %s: %s\n", i+1, field.Name, value)
		text += fmt.Sprintf("   Method: %s, Page: %d\n", field.Method, field.Page)
	}
	if result.Skipped > 0 {
		text += fmt.Sprintf("\n%d discovery step(s) failed and were skipped\n", result.Skipped)
	}
	return text
}

func (s *Server) formatPageTextResult(result *pdf.PageTextResult) string {
	text := fmt.Sprintf("Text of %s (%d page(s))\n", result.Path, len(result.Pages))
	for _, page := range result.Pages {
		text += fmt.Sprintf("\n--- Page %d (%s) ---\n", page.Number, page.Source)
		text += page.Text + "\n"
	}
	return text
}

func (s *Server) formatSectionMatch(match *pdf.SectionMatch) string {
	if !match.Found {
		return fmt.Sprintf("No line in %s matches %q at threshold %d", match.Path, match.Heading, match.Threshold)
	}
	return fmt.Sprintf("First line matching %q in %s: page %d (%s): %s",
		match.Heading, match.Path, match.Page, match.Source, match.Line)
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🎯 Default Threshold: %d\n", result.DefaultThreshold)
	if result.OCRAvailable {
		text += "🔍 OCR: available\n\n"
	} else {
		text += "🔍 OCR: unavailable (scanned pages cannot be read)\n\n"
	}

	// Directory contents
	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += fmt.Sprintf("🩺 Checked Sections: %s\n", strings.Join(result.Headings, ", "))
	text += fmt.Sprintf("📝 Referral Fields: %s\n\n", strings.Join(result.ReferralFields, ", "))

	// Available tools
	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	// Usage guidance
	text += "\n" + result.UsageGuidance

	return text
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode. Logs go to the configured
// logger, never to stdout.
func (s *Server) runStdioMode(_ context.Context) error {
	s.log.Debug("Starting MCP server in stdio mode", "directory", s.config.PDFDirectory)

	errorLogger := slog.NewLogLogger(s.log.Handler(), slog.LevelError)
	if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(errorLogger)); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the HTTP API with the streamable MCP transport
// mounted at MCPEndpoint until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	streamable := server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath(MCPEndpoint))
	handler := api.NewServer(s.pdfService, api.Options{
		APIKey: s.config.APIKey,
		MCP:    streamable,
		Logger: s.log,
	})

	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.log.Info("HTTP server listening",
		"address", s.config.Address(),
		"mcp_endpoint", MCPEndpoint,
		"auth", s.config.APIKey != "")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve HTTP: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.log.Info("Shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		return nil
	}
}
