// Package pdftest builds small, valid PDF files for tests. Offsets in the
// cross-reference table are computed, so both pdfcpu and ledongthuc/pdf can
// read the output.
package pdftest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Line is a run of text drawn at a fixed baseline position
type Line struct {
	X, Y float64
	Text string
}

// Widget is a text form field with its widget merged into the field dictionary
type Widget struct {
	Name  string
	Value string
	Rect  [4]float64
}

// FreeText is a free text annotation
type FreeText struct {
	Contents string
	Rect     [4]float64
}

// Page describes the content of one page
type Page struct {
	Lines     []Line
	Widgets   []Widget
	FreeTexts []FreeText
	// MarkTextField wraps the content stream in a /Tx BMC marked-content
	// sequence, the marker used by text field appearance streams
	MarkTextField bool
}

// Build renders pages into a PDF document
func Build(pages ...Page) []byte {
	// Object numbers: 1 catalog, 2 page tree, 3 font, then per page:
	// page, contents, annotations.
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	add("") // catalog, filled in below
	add("") // page tree, filled in below
	add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var pageRefs, fieldRefs []string
	for _, p := range pages {
		pageNum := add("") // page, filled in below
		contentsNum := add(stream(contentStream(p)))

		var annotRefs []string
		for _, w := range p.Widgets {
			n := add(fmt.Sprintf(
				"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /V (%s) /Rect [%s] /P %d 0 R /F 4 >>",
				escape(w.Name), escape(w.Value), rect(w.Rect), pageNum))
			annotRefs = append(annotRefs, ref(n))
			fieldRefs = append(fieldRefs, ref(n))
		}
		for _, ft := range p.FreeTexts {
			n := add(fmt.Sprintf(
				"<< /Type /Annot /Subtype /FreeText /Contents (%s) /Rect [%s] /DA (/Helv 10 Tf 0 g) /P %d 0 R >>",
				escape(ft.Contents), rect(ft.Rect), pageNum))
			annotRefs = append(annotRefs, ref(n))
		}

		page := fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %s /Resources << /Font << /F1 3 0 R >> >>",
			ref(contentsNum))
		if len(annotRefs) > 0 {
			page += " /Annots [" + strings.Join(annotRefs, " ") + "]"
		}
		objects[pageNum-1] = page + " >>"
		pageRefs = append(pageRefs, ref(pageNum))
	}

	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if len(fieldRefs) > 0 {
		catalog += " /AcroForm << /Fields [" + strings.Join(fieldRefs, " ") + "] >>"
	}
	objects[0] = catalog + " >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(pageRefs, " "), len(pageRefs))

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for i, body := range objects {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset)

	return []byte(b.String())
}

// WriteFile builds the document into a file inside a per-test temporary
// directory and returns its path
func WriteFile(t testing.TB, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

func contentStream(p Page) string {
	var b strings.Builder
	if p.MarkTextField {
		b.WriteString("/Tx BMC\n")
	}
	for _, l := range p.Lines {
		fmt.Fprintf(&b, "BT\n/F1 12 Tf\n%g %g Td\n(%s) Tj\nET\n", l.X, l.Y, escape(l.Text))
	}
	if p.MarkTextField {
		b.WriteString("EMC\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func stream(data string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data)
}

func rect(r [4]float64) string {
	return fmt.Sprintf("%g %g %g %g", r[0], r[1], r[2], r[3])
}

func ref(n int) string {
	return fmt.Sprintf("%d 0 R", n)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}
