package assemble

import (
	"context"
	"regexp"
	"strings"

	"doc-translator/internal/translate"
	"doc-translator/internal/types"
)

// paragraphBreak matches runs of two or more newlines; everything between
// two runs is one translation unit.
var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// splitParagraphs cuts text into paragraph units. Markdown syntax inside a
// paragraph travels through translation as part of the unit; the system
// prompt is responsible for preserving it.
func splitParagraphs(text string) []string {
	return paragraphBreak.Split(text, -1)
}

func reassembleMarkdown(ctx context.Context, tr translate.Translator, doc *types.ParsedDocument, opts Options) (*types.Artifact, error) {
	paragraphs := splitParagraphs(doc.Text)
	results := translate.TranslateBatch(ctx, tr, paragraphs, opts.batchOptions(), opts.OnProgress, opts.OnLog)

	// Rejoining normalizes paragraph breaks to exactly one blank line.
	out := strings.Join(results, "\n\n")
	return newArtifact(OutputFileName(doc.FileName, doc.Format), []byte(out)), nil
}
