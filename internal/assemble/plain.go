package assemble

import (
	"context"

	"doc-translator/internal/translate"
	"doc-translator/internal/types"
)

// reassemblePlain translates the whole file as one unit. Plain text carries
// no paragraph delimiter this pipeline wants to rely on, so it is not
// segmented. Running the single chunk through the batch translator keeps
// logging, progress, and fallback behavior uniform across formats.
func reassemblePlain(ctx context.Context, tr translate.Translator, doc *types.ParsedDocument, opts Options) (*types.Artifact, error) {
	results := translate.TranslateBatch(ctx, tr, []string{doc.Text}, opts.batchOptions(), opts.OnProgress, opts.OnLog)
	return newArtifact(OutputFileName(doc.FileName, doc.Format), []byte(results[0])), nil
}
