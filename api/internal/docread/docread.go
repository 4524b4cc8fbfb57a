// Package docread turns uploaded bytes into raw text. It does no parsing.
package docread

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Kind is the declared source format of a document.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

var (
	ErrUnsupportedKind = eris.New("unsupported document kind")
	ErrUnreadable      = eris.New("document could not be read")
)

// KindFromName maps an uploaded filename to a Kind by extension.
func KindFromName(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".pdf":
		return KindPDF, nil
	case ".txt", ".text":
		return KindText, nil
	}
	return "", eris.Wrapf(ErrUnsupportedKind, "file %q", name)
}

// Sniff guesses the kind from content when no filename is available.
func Sniff(b []byte) Kind {
	if len(b) >= 5 && b[0] == '%' && b[1] == 'P' && b[2] == 'D' && b[3] == 'F' && b[4] == '-' {
		return KindPDF
	}
	return KindText
}

// PDFMode controls use of the external pdftotext binary.
type PDFMode string

const (
	// PDFAuto uses pdftotext only when the built-in reader fails or finds no text.
	PDFAuto   PDFMode = "auto"
	PDFAlways PDFMode = "always"
	PDFNever  PDFMode = "never"
)

func ParsePDFMode(s string) (PDFMode, error) {
	switch m := PDFMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return PDFAuto, nil
	case PDFAuto, PDFAlways, PDFNever:
		return m, nil
	}
	return "", eris.Errorf("unknown pdftotext mode %q (use auto|always|never)", s)
}

type Reader struct {
	mode PDFMode
	bin  string
	log  *zap.Logger
}

func New(mode PDFMode, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	if mode == "" {
		mode = PDFAuto
	}
	return &Reader{mode: mode, bin: "pdftotext", log: log}
}

// Read returns the document text. Pages of a PDF are joined with newlines.
func (r *Reader) Read(ctx context.Context, data []byte, kind Kind) (string, error) {
	switch kind {
	case KindText:
		return decodeText(data), nil
	case KindPDF:
		return r.readPDF(ctx, data)
	}
	return "", eris.Wrapf(ErrUnsupportedKind, "kind %q", kind)
}

func (r *Reader) readPDF(ctx context.Context, data []byte) (string, error) {
	if r.mode == PDFAlways {
		return r.pdftotext(ctx, data)
	}
	text, err := pagesText(data)
	if err == nil && strings.TrimSpace(text) != "" && !runOn(text) {
		return text, nil
	}
	if r.mode == PDFNever {
		if err != nil {
			return "", err
		}
		return text, nil
	}
	r.log.Info("built-in pdf reader gave no usable text, trying pdftotext", zap.Error(err))
	out, xerr := r.pdftotext(ctx, data)
	if xerr != nil {
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
		return "", xerr
	}
	return out, nil
}

// runOn reports text that lost its line structure.
func runOn(text string) bool {
	t := strings.TrimSpace(text)
	return len(t) >= 80 && !strings.Contains(t, "\n")
}

func pagesText(data []byte) (text string, err error) {
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if p := recover(); p != nil {
			err = eris.Wrapf(ErrUnreadable, "pdf: %v", p)
		}
	}()
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrapf(ErrUnreadable, "pdf: %v", err)
	}
	var sb strings.Builder
	for i := 1; i <= rd.NumPage(); i++ {
		p := rd.Page(i)
		if p.V.IsNull() {
			continue
		}
		if t := pageLines(p); t != "" {
			sb.WriteString(t)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// pageLines rebuilds the page's lines from glyph positions. A baseline change
// starts a new line and a horizontal gap on the same baseline becomes a space.
func pageLines(p pdf.Page) string {
	glyphs := p.Content().Text
	var sb strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			switch {
			case math.Abs(g.Y-prev.Y) > max(prev.FontSize/2, 1):
				sb.WriteByte('\n')
			case prev.S != " " && g.S != " " && g.X-(prev.X+prev.W) > gapWidth(prev):
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	return strings.TrimSpace(sb.String())
}

// gapWidth is the horizontal distance read as a word break. Fonts without
// width tables report W == 0, so any forward move counts.
func gapWidth(g pdf.Text) float64 {
	if g.W == 0 {
		return 0.5
	}
	return g.FontSize * 0.2
}

func (r *Reader) pdftotext(ctx context.Context, data []byte) (string, error) {
	cmd := exec.CommandContext(ctx, r.bin, "-enc", "UTF-8", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", eris.Wrapf(ErrUnreadable, "pdftotext failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return decodeText(out), nil
}

// decodeText reads UTF-8 and falls back to Windows-1252 for legacy exports.
func decodeText(b []byte) string {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
