// Package extract produces bounded text snippets from document files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSnippetLength bounds snippets when no length is configured.
const DefaultSnippetLength = 500

// plainExtensions are formats read directly as text.
var plainExtensions = map[string]bool{
	".txt": true, ".md": true, ".rst": true, ".csv": true, ".json": true,
	".log": true, ".html": true, ".py": true, ".go": true, ".java": true,
}

// Extractor extracts a bounded text snippet from document files. The snippet
// is the unit of embedding and storage, so its length is capped and newlines
// are collapsed to spaces.
type Extractor struct {
	snippetLen int
}

// NewExtractor returns an Extractor producing snippets of at most snippetLen
// runes. Non-positive values fall back to DefaultSnippetLength.
func NewExtractor(snippetLen int) *Extractor {
	if snippetLen <= 0 {
		snippetLen = DefaultSnippetLength
	}
	return &Extractor{snippetLen: snippetLen}
}

// Snippet reads the file at path and returns a bounded snippet of its text.
// Plain text formats are read directly; PDF, DOCX, and XLSX are parsed from
// the binary format. Unsupported formats yield an empty snippet and no error,
// which callers treat as a skip signal.
func (e *Extractor) Snippet(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.SnippetBytes(content, strings.ToLower(filepath.Ext(path)))
}

// SnippetBytes extracts a snippet from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Each format extractor
// stops gathering text once the raw budget is reached, so a thousand-page
// document costs no more than a one-page one.
func (e *Extractor) SnippetBytes(content []byte, ext string) (string, error) {
	budget := e.rawBudget()
	var text string
	var err error
	switch {
	case plainExtensions[ext]:
		text = extractPlain(content, budget)
	case ext == ".pdf":
		text, err = extractPDF(content, budget)
	case ext == ".docx":
		text, err = extractDOCX(content, budget)
	case ext == ".xlsx":
		text, err = extractExcel(content, budget)
	default:
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return e.bound(text), nil
}

// rawBudget is how many bytes of text a format extractor gathers before
// stopping: four bytes per snippet rune, leaving slack for multi-byte runes
// and for whitespace runs the final bound pass collapses away.
func (e *Extractor) rawBudget() int {
	return e.snippetLen * 4
}

// bound caps text to the snippet length in runes and collapses whitespace runs
// (including newlines) to single spaces.
func (e *Extractor) bound(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > e.snippetLen {
		runes = runes[:e.snippetLen]
	}
	return strings.TrimSpace(string(runes))
}
