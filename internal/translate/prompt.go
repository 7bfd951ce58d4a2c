package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// systemInstruction is the fixed part of every translation exchange. The
// model must return the translation and nothing else, so downstream
// reassembly can splice results back positionally.
const systemInstruction = `You are a professional document translator.

CRITICAL RULES:
1. Translate the user's text verbatim; do not summarize, expand, or comment.
2. Preserve Markdown formatting exactly: headings, lists, links, emphasis, and code blocks stay intact.
3. Preserve any markup tags exactly as they appear; translate only the human-readable text between them.
4. Preserve numbers, identifiers, formulas, and whitespace structure.
5. Output only the translated text with no explanations or notes.`

// autoDetectDirective is used when no target language is configured.
const autoDetectDirective = "Detect whether the text is Chinese or English, and translate it into the other language."

// languageName renders a BCP-47 tag as an English language name for the
// prompt. Unparseable tags fall back to the raw string so the directive is
// still meaningful to the model.
func languageName(tag string) string {
	t := language.Make(tag)
	if t == language.Und {
		return tag
	}
	if name := display.English.Languages().Name(t); name != "" {
		return name
	}
	return tag
}

// SystemPrompt combines the fixed instruction with the language directive
// derived from the configured target language. An empty target selects
// Chinese/English auto-detection.
func SystemPrompt(targetLanguage string) string {
	directive := autoDetectDirective
	if strings.TrimSpace(targetLanguage) != "" {
		directive = fmt.Sprintf("Translate the text into %s.", languageName(targetLanguage))
	}
	return systemInstruction + "\n\n" + directive
}
