// Package document turns uploaded files into typed in-memory documents the
// translation pipeline can work on.
package document

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

// DocumentBodyPart is the archive entry a docx container must provide.
const DocumentBodyPart = "word/document.xml"

// FormatForFile infers the document format from the filename extension.
// Unrecognized extensions deliberately fall back to plain text instead of
// being rejected; this mirrors the upload surface, which filters extensions
// before files reach the parser.
func FormatForFile(fileName string) types.DocumentFormat {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return types.FormatDocx
	case ".md", ".markdown":
		return types.FormatMarkdown
	case ".pdf":
		return types.FormatPDF
	default:
		return types.FormatText
	}
}

// Parse builds a ParsedDocument from raw file bytes. Format inference never
// fails; malformed structured content surfaces as ErrMalformedDocument.
func Parse(fileName string, data []byte) (*types.ParsedDocument, error) {
	format := FormatForFile(fileName)

	doc := &types.ParsedDocument{
		FileName: fileName,
		Format:   format,
		Payload:  data,
	}

	switch format {
	case types.FormatDocx:
		if err := validateDocxArchive(data); err != nil {
			return nil, err
		}
		// Text extraction is deferred to reassembly, which needs direct
		// node-level access to write translations back.

	case types.FormatPDF:
		pages, err := extractPDFPages(data)
		if err != nil {
			return nil, err
		}
		doc.PageTexts = pages
		doc.Text = strings.Join(pages, "\n\n")

	default:
		doc.Text = string(data)
	}

	logger.Debug("document parsed",
		logger.String("file", fileName),
		logger.String("format", string(format)),
		logger.Int("bytes", len(data)))

	return doc, nil
}

// validateDocxArchive confirms the archive opens and carries the required
// document body part. The archive bytes themselves stay untouched; they are
// the structural handle reassembly mutates later.
func validateDocxArchive(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return types.NewAppError(types.ErrMalformedDocument, "file is not a valid docx archive", err)
	}
	for _, f := range zr.File {
		if f.Name == DocumentBodyPart {
			return nil
		}
	}
	return types.NewAppErrorWithDetails(types.ErrMalformedDocument,
		"docx archive is missing its document body", DocumentBodyPart+" not found", nil)
}

// extractPDFPages validates the PDF and returns the text of each page in
// page order. Within a page, text items are joined with a single space.
func extractPDFPages(data []byte) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return nil, types.NewAppError(types.ErrMalformedDocument, "PDF failed validation", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, types.NewAppError(types.ErrMalformedDocument, "failed to open PDF", err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		var sb strings.Builder
		for _, item := range page.Content().Text {
			if item.S == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(item.S)
		}
		pages = append(pages, sb.String())
	}

	logger.Debug("PDF text extracted", logger.Int("pages", totalPages))
	return pages, nil
}
