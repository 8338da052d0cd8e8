package wrapper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxFieldDepth bounds the /Parent chain walked when resolving inherited
// field attributes
const maxFieldDepth = 32

// pdfcpuStructure reads the object structure of a document: annotations,
// form widgets and content streams
type pdfcpuStructure struct {
	ctx *model.Context
}

// readStructure parses the document with relaxed validation so that slightly
// broken hospital exports still open
func readStructure(rs io.ReadSeeker) (*pdfcpuStructure, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	return &pdfcpuStructure{ctx: ctx}, nil
}

func (s *pdfcpuStructure) numPages() int {
	return s.ctx.PageCount
}

func (s *pdfcpuStructure) pageDict(page int) (types.Dict, error) {
	if page < 1 || page > s.ctx.PageCount {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "page",
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage, page, s.ctx.PageCount),
		}
	}

	d, _, _, err := s.ctx.PageDict(page, false)
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "page", Err: err}
	}
	if d == nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "page", Err: fmt.Errorf("page %d not found", page)}
	}
	return d, nil
}

// annotationDicts returns the dereferenced entries of the page's /Annots array.
// Entries that cannot be dereferenced are skipped.
func (s *pdfcpuStructure) annotationDicts(page int) ([]types.Dict, error) {
	d, err := s.pageDict(page)
	if err != nil {
		return nil, err
	}

	annotsObj, found := d.Find("Annots")
	if !found {
		return nil, nil
	}

	arr, err := s.ctx.DereferenceArray(annotsObj)
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "annotations", Err: err}
	}

	dicts := make([]types.Dict, 0, len(arr))
	for _, obj := range arr {
		annot, err := s.ctx.DereferenceDict(obj)
		if err != nil || annot == nil {
			continue
		}
		dicts = append(dicts, annot)
	}
	return dicts, nil
}

func (s *pdfcpuStructure) widgets(page int) ([]Widget, error) {
	annots, err := s.annotationDicts(page)
	if err != nil {
		return nil, err
	}

	var widgets []Widget
	for _, annot := range annots {
		if subtype := annot.Subtype(); subtype == nil || *subtype != "Widget" {
			continue
		}
		fieldType := s.fieldType(annot)
		widgets = append(widgets, Widget{
			Name:  s.fieldName(annot),
			Value: s.fieldValue(annot, fieldType),
			Type:  fieldType,
			Rect:  s.rect(annot),
		})
	}
	return widgets, nil
}

func (s *pdfcpuStructure) annotations(page int) ([]Annotation, error) {
	annots, err := s.annotationDicts(page)
	if err != nil {
		return nil, err
	}

	result := make([]Annotation, 0, len(annots))
	for _, annot := range annots {
		a := Annotation{Rect: s.rect(annot)}
		if subtype := annot.Subtype(); subtype != nil {
			a.Subtype = *subtype
		}
		a.Name = s.fieldName(annot)
		a.Value = s.fieldValue(annot, s.fieldType(annot))
		if obj, found := annot.Find("Contents"); found {
			if contents, err := s.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
				a.Contents = contents
			}
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *pdfcpuStructure) contentStream(page int) ([]byte, error) {
	d, err := s.pageDict(page)
	if err != nil {
		return nil, err
	}

	content, err := s.ctx.PageContent(d, page)
	if errors.Is(err, model.ErrNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "content_stream", Err: err}
	}
	return content, nil
}

// fieldName builds the fully qualified field name by joining the partial
// names (/T) along the /Parent chain with periods
func (s *pdfcpuStructure) fieldName(d types.Dict) string {
	var parts []string
	for depth := 0; d != nil && depth < maxFieldDepth; depth++ {
		if obj, found := d.Find("T"); found {
			if name, err := s.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil && name != "" {
				parts = append([]string{name}, parts...)
			}
		}
		d = s.parent(d)
	}
	return strings.Join(parts, ".")
}

// fieldType resolves the inheritable /FT entry to a readable type name
func (s *pdfcpuStructure) fieldType(d types.Dict) string {
	obj, owner := s.inherited(d, "FT")
	if obj == nil {
		return ""
	}

	ft, err := s.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}

	switch ft {
	case "Btn":
		if flagsObj, _ := s.inherited(owner, "Ff"); flagsObj != nil {
			if flags, err := s.ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				flagValue := *flags
				if (flagValue & (1 << 15)) != 0 { // Bit 16: Radio
					return "radio"
				} else if (flagValue & (1 << 16)) != 0 { // Bit 17: Pushbutton
					return "button"
				}
			}
		}
		return "checkbox"
	case "Tx":
		return "text"
	case "Ch":
		return "choice"
	case "Sig":
		return "signature"
	default:
		return ""
	}
}

// fieldValue decodes the inheritable /V entry as text. Button states are
// returned by name, multi-select choices are joined with commas.
func (s *pdfcpuStructure) fieldValue(d types.Dict, fieldType string) string {
	obj, _ := s.inherited(d, "V")
	if obj == nil {
		return ""
	}

	switch fieldType {
	case "checkbox", "radio", "button":
		if name, err := s.ctx.DereferenceName(obj, model.V10, nil); err == nil {
			return string(name)
		}
	case "signature":
		// Signature values are dictionaries, not text
		return ""
	}

	if val, err := s.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return val
	}

	if arr, err := s.ctx.DereferenceArray(obj); err == nil {
		var values []string
		for _, item := range arr {
			if str, err := s.ctx.DereferenceStringOrHexLiteral(item, model.V10, nil); err == nil {
				values = append(values, str)
			}
		}
		return strings.Join(values, ", ")
	}

	if name, err := s.ctx.DereferenceName(obj, model.V10, nil); err == nil {
		return string(name)
	}

	return ""
}

// inherited looks key up on d and then along its /Parent chain, returning the
// value and the dictionary that holds it
func (s *pdfcpuStructure) inherited(d types.Dict, key string) (types.Object, types.Dict) {
	for depth := 0; d != nil && depth < maxFieldDepth; depth++ {
		if obj, found := d.Find(key); found && obj != nil {
			return obj, d
		}
		d = s.parent(d)
	}
	return nil, nil
}

func (s *pdfcpuStructure) parent(d types.Dict) types.Dict {
	obj, found := d.Find("Parent")
	if !found {
		return nil
	}
	p, err := s.ctx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return p
}

func (s *pdfcpuStructure) rect(d types.Dict) Rectangle {
	obj, found := d.Find("Rect")
	if !found {
		return Rectangle{}
	}

	arr, err := s.ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return Rectangle{}
	}

	coords := make([]float64, 4)
	for i, coord := range arr {
		if f, err := s.ctx.DereferenceNumber(coord); err == nil {
			coords[i] = f
		}
	}
	return NewRectangle(coords[0], coords[1], coords[2], coords[3])
}
