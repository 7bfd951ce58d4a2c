package assemble

import (
	"context"
	"strings"

	"doc-translator/internal/translate"
	"doc-translator/internal/types"
)

// reassemblePaged translates each page independently, in page order, and
// joins the results with a visible page-break line. The output is always
// plain text; page-accurate binary reconstruction is out of scope.
func reassemblePaged(ctx context.Context, tr translate.Translator, doc *types.ParsedDocument, opts Options) (*types.Artifact, error) {
	results := translate.TranslateBatch(ctx, tr, doc.PageTexts, opts.batchOptions(), opts.OnProgress, opts.OnLog)

	out := strings.Join(results, PageDelimiter)
	return newArtifact(OutputFileName(doc.FileName, doc.Format), []byte(out)), nil
}
