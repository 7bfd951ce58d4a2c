package assemble

import (
	"archive/zip"
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"doc-translator/internal/document"
	"doc-translator/internal/translate"
	"doc-translator/internal/types"
)

// textSpan addresses the content of one text element inside the document
// body, as byte offsets into the raw XML. The ordered span slice is the
// index both passes share: extraction reads spans in order, and insertion
// writes translations back through the same slice, so positional
// correspondence is structural rather than dependent on re-walking the tree.
type textSpan struct {
	start int // first content byte
	end   int // one past the last content byte
}

// xmlEscaper writes translated text back into XML content. Escaping is
// total, so output stays well formed regardless of what the model returns.
var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

// reassembleDocx translates the text nodes of a docx body in place. The
// body XML is edited as raw bytes and every other archive entry is copied
// verbatim, so no structure outside the text nodes changes.
func reassembleDocx(ctx context.Context, tr translate.Translator, doc *types.ParsedDocument, opts Options) (*types.Artifact, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Payload), int64(len(doc.Payload)))
	if err != nil {
		return nil, types.NewAppError(types.ErrMalformedDocument, "file is not a valid docx archive", err)
	}

	body, err := readArchiveEntry(zr, document.DocumentBodyPart)
	if err != nil {
		return nil, err
	}

	spans, units := collectTextUnits(body)
	outName := OutputFileName(doc.FileName, doc.Format)

	if len(units) == 0 {
		if opts.OnLog != nil {
			opts.OnLog(types.LogEntry{
				Time:      time.Now(),
				FileLabel: opts.FileLabel,
				Message:   "document contains no translatable text, returning it unchanged",
				Severity:  types.SeverityWarning,
			})
		}
		return newArtifact(outName, doc.Payload), nil
	}

	results := translate.TranslateBatch(ctx, tr, units, opts.batchOptions(), opts.OnProgress, opts.OnLog)

	newBody := spliceTranslations(body, spans, results)
	data, err := rewriteArchive(zr, newBody)
	if err != nil {
		return nil, err
	}
	return newArtifact(outName, data), nil
}

// collectTextUnits scans the body for text elements and returns the spans of
// those whose content is non-blank, together with their unescaped text. The
// two slices are index-aligned.
func collectTextUnits(body []byte) ([]textSpan, []string) {
	var spans []textSpan
	var units []string
	for _, span := range scanTextSpans(body) {
		text := unescapeXML(string(body[span.start:span.end]))
		if strings.TrimSpace(text) == "" {
			continue
		}
		spans = append(spans, span)
		units = append(units, text)
	}
	return spans, units
}

// scanTextSpans finds every <w:t> element's content range in document order.
// Self-closing elements carry no content and are skipped.
func scanTextSpans(body []byte) []textSpan {
	const openPrefix = "<w:t"
	const closeTag = "</w:t>"

	var spans []textSpan
	pos := 0
	for {
		rel := bytes.Index(body[pos:], []byte(openPrefix))
		if rel < 0 {
			break
		}
		tagStart := pos + rel
		after := tagStart + len(openPrefix)
		if after >= len(body) {
			break
		}

		// Reject longer element names sharing the prefix (w:tbl, w:tc, w:tr).
		switch body[after] {
		case '>', '/', ' ', '\t', '\r', '\n':
		default:
			pos = after
			continue
		}

		contentStart := tagEnd(body, after)
		if contentStart < 0 {
			break
		}
		if body[contentStart-2] == '/' {
			// Self-closing, no content.
			pos = contentStart
			continue
		}

		closeRel := bytes.Index(body[contentStart:], []byte(closeTag))
		if closeRel < 0 {
			break
		}
		spans = append(spans, textSpan{start: contentStart, end: contentStart + closeRel})
		pos = contentStart + closeRel + len(closeTag)
	}
	return spans
}

// tagEnd returns the offset just past the '>' that closes the tag whose
// attributes begin at start. A '>' inside a quoted attribute value is legal
// XML and must not end the tag. Returns -1 when the tag never closes.
func tagEnd(body []byte, start int) int {
	var quote byte
	for i := start; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return i + 1
		}
	}
	return -1
}

// unescapeXML decodes the named entities and numeric character references
// that may appear in text content. Anything unrecognized is kept literally.
func unescapeXML(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			sb.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			sb.WriteString(s[i:])
			break
		}
		if decoded, ok := decodeEntity(s[i+1 : i+semi]); ok {
			sb.WriteString(decoded)
			i += semi + 1
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

// decodeEntity resolves one entity body (the text between '&' and ';').
func decodeEntity(name string) (string, bool) {
	switch name {
	case "lt":
		return "<", true
	case "gt":
		return ">", true
	case "amp":
		return "&", true
	case "quot":
		return `"`, true
	case "apos":
		return "'", true
	}
	if !strings.HasPrefix(name, "#") {
		return "", false
	}

	digits := name[1:]
	base := 10
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		digits = digits[1:]
		base = 16
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return "", false
	}
	return string(rune(n)), true
}

// spliceTranslations rebuilds the body with each span's content replaced by
// the escaped translation at the same index. Spans are disjoint and sorted,
// so a single forward pass suffices.
func spliceTranslations(body []byte, spans []textSpan, translations []string) []byte {
	var out bytes.Buffer
	out.Grow(len(body))

	prev := 0
	for i, span := range spans {
		out.Write(body[prev:span.start])
		out.WriteString(xmlEscaper.Replace(translations[i]))
		prev = span.end
	}
	out.Write(body[prev:])
	return out.Bytes()
}

func readArchiveEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, types.NewAppError(types.ErrMalformedDocument, "failed to open archive entry "+name, err)
		}
		defer rc.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, types.NewAppError(types.ErrMalformedDocument, "failed to read archive entry "+name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, types.NewAppErrorWithDetails(types.ErrMalformedDocument,
		"docx archive is missing its document body", name+" not found", nil)
}

// rewriteArchive writes a new archive with the mutated body. Every other
// entry is copied raw, compressed bytes included, so untouched parts survive
// byte for byte.
func rewriteArchive(zr *zip.Reader, newBody []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range zr.File {
		if f.Name != document.DocumentBodyPart {
			if err := zw.Copy(f); err != nil {
				zw.Close()
				return nil, types.NewAppError(types.ErrInternal, "failed to copy archive entry "+f.Name, err)
			}
			continue
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			zw.Close()
			return nil, types.NewAppError(types.ErrInternal, "failed to rewrite document body", err)
		}
		if _, err := w.Write(newBody); err != nil {
			zw.Close()
			return nil, types.NewAppError(types.ErrInternal, "failed to write document body", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to finalize archive", err)
	}
	return buf.Bytes(), nil
}
