package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"piiscan/internal/models"
)

// Form-field header markers. The header precedes the body text so the model
// sees the structured answers before the free text.
const (
	formHeaderStart = "=== FORM FIELDS ==="
	formHeaderEnd   = "=== END FORM FIELDS ==="
)

// fieldKind enumerates the interactive control kinds of an AcroForm field.
// The switch over it in resolveValue is exhaustive: adding a kind without a
// resolution rule is a compile-visible change.
type fieldKind int

const (
	kindText fieldKind = iota
	kindCheckbox
	kindRadio
	kindChoice
	kindMultiChoice
)

// Field-flag bits from the form field dictionary's Ff entry.
const (
	ffRadio       = 1 << 15
	ffPushbutton  = 1 << 16
	ffMultiSelect = 1 << 21
)

// formHeader walks the document's AcroForm field tree and renders the filled
// fields as a delimited block of "label: value" lines. Documents without a
// form, or forms with no non-empty field, yield an empty header. Any failure
// of the walk itself is returned so the caller can skip the header and
// continue with text extraction.
func formHeader(raw []byte) (header string, err error) {
	defer func() {
		if r := recover(); r != nil {
			header = ""
			err = &models.FieldExtractionError{Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if rerr != nil {
		return "", &models.FieldExtractionError{Err: rerr}
	}

	fields := reader.Trailer().Key("Root").Key("AcroForm").Key("Fields")
	if fields.Kind() != pdf.Array {
		return "", nil
	}

	var lines []string
	for i := 0; i < fields.Len(); i++ {
		collectField(fields.Index(i), "", &lines)
	}
	if len(lines) == 0 {
		return "", nil
	}
	return formHeaderStart + "\n" + strings.Join(lines, "\n") + "\n" + formHeaderEnd, nil
}

// collectField resolves one field (or recurses into a non-terminal node of
// the field tree). A failure inside a single field skips that field only.
func collectField(v pdf.Value, prefix string, lines *[]string) {
	defer func() {
		_ = recover()
	}()

	name := qualifiedName(v, prefix)

	// Non-terminal node: no field type of its own, only children.
	if kids := v.Key("Kids"); kids.Kind() == pdf.Array && v.Key("FT").Kind() != pdf.Name {
		for i := 0; i < kids.Len(); i++ {
			collectField(kids.Index(i), name, lines)
		}
		return
	}

	value := strings.TrimSpace(resolveValue(v))
	if value == "" {
		return
	}
	label := cleanLabel(name)
	if label == "" {
		return
	}
	*lines = append(*lines, label+": "+value)
}

func qualifiedName(v pdf.Value, prefix string) string {
	part := ""
	if t := v.Key("T"); t.Kind() == pdf.String {
		part = t.Text()
	}
	switch {
	case prefix == "":
		return part
	case part == "":
		return prefix
	default:
		return prefix + "." + part
	}
}

func resolveKind(v pdf.Value) fieldKind {
	flags := v.Key("Ff").Int64()
	switch v.Key("FT").Name() {
	case "Btn":
		if flags&ffRadio != 0 {
			return kindRadio
		}
		return kindCheckbox // pushbuttons carry no value and resolve to empty
	case "Ch":
		if flags&ffMultiSelect != 0 || v.Key("V").Kind() == pdf.Array {
			return kindMultiChoice
		}
		return kindChoice
	default:
		return kindText
	}
}

// resolveValue renders the field's value per control kind.
func resolveValue(v pdf.Value) string {
	val := v.Key("V")
	switch resolveKind(v) {
	case kindCheckbox:
		if val.Kind() != pdf.Name {
			return "" // never touched, nothing to report
		}
		if val.Name() == "Off" {
			return "No"
		}
		return "Yes"
	case kindRadio:
		if name := val.Name(); name != "Off" {
			return name
		}
		return ""
	case kindMultiChoice:
		if val.Kind() == pdf.Array {
			var parts []string
			for i := 0; i < val.Len(); i++ {
				if s := scalarText(val.Index(i)); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		}
		return scalarText(val)
	case kindChoice, kindText:
		return scalarText(val)
	}
	return ""
}

func scalarText(v pdf.Value) string {
	switch v.Kind() {
	case pdf.String:
		return v.Text()
	case pdf.Name:
		return v.Name()
	case pdf.Integer:
		return strconv.FormatInt(v.Int64(), 10)
	case pdf.Real:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	default:
		return ""
	}
}

var (
	arrayIndexToken = regexp.MustCompile(`\[\d+\]`)
	camelBoundary   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	spaceRuns       = regexp.MustCompile(`\s+`)
)

// cleanLabel turns a structural field identifier into a pseudo-question
// label: the path prefix and array indices are dropped, and the remaining
// camelCase or snake_case token is split into words.
// "topmostSubform[0].applicantLastName[0]" becomes "applicant Last Name".
func cleanLabel(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = arrayIndexToken.ReplaceAllString(name, "")
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = camelBoundary.ReplaceAllString(name, "$1 $2")
	return spaceRuns.ReplaceAllString(strings.TrimSpace(name), " ")
}
