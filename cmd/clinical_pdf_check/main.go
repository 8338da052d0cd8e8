package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a3tai/mcp-clinical-pdf/internal/app"
	"github.com/a3tai/mcp-clinical-pdf/internal/config"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf"
	"github.com/a3tai/mcp-clinical-pdf/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run checks one PDF and writes the report to stdout. It returns the process
// exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("clinical_pdf_check", flag.ContinueOnError)
	flags.SetOutput(stderr)

	docType := flags.String("type", "auto", "Document type: discharge, referral, auto")
	threshold := flags.Int("threshold", config.DefaultThreshold, "Heading match threshold (60-100)")
	format := flags.String("format", "text", "Output format: text, markdown, html, json")
	directory := flags.String("dir", "", "Directory documents are confined to (default: the file's directory)")
	ocrLanguage := flags.String("ocr-lang", config.DefaultOCRLanguage, "Tesseract language(s), e.g. eng+hin")
	vocabulary := flags.String("vocab", "", "YAML vocabulary override file")
	logLevel := flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	help := flags.Bool("help", false, "Show help message")
	flags.Usage = func() { printUsage(stderr) }

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *help {
		printHelp(stdout)
		return 0
	}

	if flags.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one PDF file path required\n\n")
		printUsage(stderr)
		return 2
	}

	path, err := filepath.Abs(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(stderr, "Error: File not found: %s\n", flags.Arg(0))
		return 1
	}

	req := pdf.AnalyzeRequest{Path: path, Threshold: *threshold}
	if req.Type, err = pdf.ParseDocumentType(*docType); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	outputFormat, err := report.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = filepath.Dir(path)
	if *directory != "" {
		cfg.PDFDirectory = *directory
	}
	cfg.Threshold = *threshold
	cfg.OCRLanguage = *ocrLanguage
	cfg.VocabularyFile = *vocabulary
	cfg.LogLevel = *logLevel
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	log := app.NewLogger(cfg, stderr)
	service, err := app.NewService(cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result, err := service.Analyze(context.Background(), req)
	if err != nil {
		fmt.Fprintf(stderr, "Error checking %s: %v\n", flags.Arg(0), err)
		return 1
	}

	out, err := report.Analysis(outputFormat, flags.Arg(0), result)
	if err != nil {
		fmt.Fprintf(stderr, "Error rendering report: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, out)
	return 0
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Clinical PDF Check - Check hospital documents for required content")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Discharge summaries are checked for the required section headings.")
	fmt.Fprintln(w, "Referral forms have their patient and referral fields extracted from form")
	fmt.Fprintln(w, "fields, the text layer, or OCR of the first page.")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  clinical_pdf_check summary.pdf")
	fmt.Fprintln(w, "  clinical_pdf_check -type discharge -threshold 85 -format markdown summary.pdf")
	fmt.Fprintln(w, "  clinical_pdf_check -type referral -format json referral.pdf")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  clinical_pdf_check [OPTIONS] <pdf-file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -type          Document type: discharge, referral, auto (default)")
	fmt.Fprintln(w, "  -threshold     Heading match threshold, 60-100 (default 75)")
	fmt.Fprintln(w, "  -format        Output format: text (default), markdown, html, json")
	fmt.Fprintln(w, "  -dir           Directory documents are confined to")
	fmt.Fprintln(w, "  -ocr-lang      Tesseract language(s) (default eng)")
	fmt.Fprintln(w, "  -vocab         YAML vocabulary override file")
	fmt.Fprintln(w, "  -log-level     Log level (default warn)")
	fmt.Fprintln(w, "  -help          Show this help message")
}
