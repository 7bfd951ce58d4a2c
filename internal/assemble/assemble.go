// Package assemble turns parsed documents into translated, downloadable
// artifacts. Each format has its own reassembler; all of them drive the
// batch translator and preserve chunk order positionally.
package assemble

import (
	"context"
	"path/filepath"
	"strings"

	"doc-translator/internal/translate"
	"doc-translator/internal/types"
)

// PageDelimiter separates translated pages in paged plain-text output.
const PageDelimiter = "\n\n----- page break -----\n\n"

// Options carries the per-run callbacks and tuning shared by all
// reassemblers.
type Options struct {
	FileLabel  string
	Workers    int
	OnProgress translate.ProgressFunc
	OnLog      translate.LogFunc
	OnPartial  func(chunkIndex int, partial string)
}

func (o Options) batchOptions() translate.BatchOptions {
	return translate.BatchOptions{
		FileLabel: o.FileLabel,
		Workers:   o.Workers,
		OnPartial: o.OnPartial,
	}
}

// Reassemble translates a parsed document and produces its output artifact.
func Reassemble(ctx context.Context, tr translate.Translator, doc *types.ParsedDocument, opts Options) (*types.Artifact, error) {
	switch doc.Format {
	case types.FormatDocx:
		return reassembleDocx(ctx, tr, doc, opts)
	case types.FormatMarkdown:
		return reassembleMarkdown(ctx, tr, doc, opts)
	case types.FormatPDF:
		return reassemblePaged(ctx, tr, doc, opts)
	default:
		return reassemblePlain(ctx, tr, doc, opts)
	}
}

// OutputFileName derives the suggested download name for a translated file.
// Paged binary input always yields plain text, so its extension becomes .txt.
func OutputFileName(fileName string, format types.DocumentFormat) string {
	base := filepath.Base(fileName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if format == types.FormatPDF {
		ext = ".txt"
	}
	return "translated_" + stem + ext
}

func newArtifact(name string, data []byte) *types.Artifact {
	return &types.Artifact{
		Name: name,
		Data: data,
		Size: len(data),
	}
}
