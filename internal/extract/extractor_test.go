package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestSnippet_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("first line\nsecond line\nthird"), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(0)
	got, err := e.Snippet(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "first line second line third" {
		t.Errorf("snippet = %q", got)
	}
}

func TestSnippet_Bounded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.md")
	if err := os.WriteFile(path, []byte(strings.Repeat("word ", 1000)), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(50)
	got, err := e.Snippet(path)
	if err != nil {
		t.Fatal(err)
	}
	if len([]rune(got)) > 50 {
		t.Errorf("snippet length = %d, want <= 50", len([]rune(got)))
	}
}

func TestSnippet_UnknownFormatIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.bin")
	if err := os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(0)
	got, err := e.Snippet(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("unknown format should yield empty snippet, got %q", got)
	}
}

func TestSnippet_MissingFile(t *testing.T) {
	e := NewExtractor(0)
	if _, err := e.Snippet(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSnippetBytes_InvalidUTF8Replaced(t *testing.T) {
	e := NewExtractor(0)
	got, err := e.SnippetBytes([]byte{'h', 'i', 0xff, 0xfe}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "hi") {
		t.Errorf("snippet = %q", got)
	}
	if !strings.Contains(got, "�") {
		t.Errorf("invalid bytes should be replaced, got %q", got)
	}
}

func minimalDocx(t *testing.T, texts ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	var body strings.Builder
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, text := range texts {
		body.WriteString(`<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	if _, err := fw.Write([]byte(body.String())); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func workbookBytes(t *testing.T, rows []string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		if err := f.SetCellValue("Sheet1", fmt.Sprintf("A%d", i+1), row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSnippetBytes_DOCX(t *testing.T) {
	e := NewExtractor(0)
	got, err := e.SnippetBytes(minimalDocx(t, "Quarterly", "planning notes"), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Quarterly planning notes" {
		t.Errorf("snippet = %q", got)
	}
}

func TestSnippetBytes_Excel(t *testing.T) {
	e := NewExtractor(0)
	got, err := e.SnippetBytes(workbookBytes(t, []string{"Title", "Value 1"}), ".xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Title Value 1" {
		t.Errorf("snippet = %q", got)
	}
}

func TestExtractPlain_StopsAtBudget(t *testing.T) {
	content := []byte(strings.Repeat("x", 100_000))
	got := extractPlain(content, 200)
	if len(got) > 203 {
		t.Errorf("gathered %d bytes for a 200-byte budget", len(got))
	}
	if !strings.HasPrefix(got, "xxx") {
		t.Errorf("got %q", got[:10])
	}
}

func TestExtractExcel_StopsAtBudget(t *testing.T) {
	rows := make([]string, 2000)
	for i := range rows {
		rows[i] = fmt.Sprintf("row %d with some filler text", i)
	}
	content := workbookBytes(t, rows)

	got, err := extractExcel(content, 100)
	if err != nil {
		t.Fatal(err)
	}
	// One row can overshoot the budget; two thousand cannot.
	if len(got) > 200 {
		t.Errorf("gathered %d bytes for a 100-byte budget", len(got))
	}
	if !strings.HasPrefix(got, "row 0") {
		t.Errorf("got %q", got)
	}
}

func TestExtractDOCX_StopsAtBudget(t *testing.T) {
	paras := make([]string, 1000)
	for i := range paras {
		paras[i] = fmt.Sprintf("paragraph %d", i)
	}
	got, err := extractDOCX(minimalDocx(t, paras...), 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) > 130 {
		t.Errorf("gathered %d bytes for a 100-byte budget", len(got))
	}
	if !strings.HasPrefix(got, "paragraph 0") {
		t.Errorf("got %q", got)
	}
}

func TestSnippet_LargeWorkbookBounded(t *testing.T) {
	rows := make([]string, 500)
	for i := range rows {
		rows[i] = strings.Repeat("cell ", 10)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "big.xlsx")
	if err := os.WriteFile(path, workbookBytes(t, rows), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(50)
	got, err := e.Snippet(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(got)); n == 0 || n > 50 {
		t.Errorf("snippet length = %d, want 1..50", n)
	}
}

func TestSnippetBytes_CorruptDOCX(t *testing.T) {
	e := NewExtractor(0)
	if _, err := e.SnippetBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for corrupt docx")
	}
}

func TestSnippetBytes_CorruptPDF(t *testing.T) {
	e := NewExtractor(0)
	if _, err := e.SnippetBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for corrupt pdf")
	}
}
