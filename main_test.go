package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const fixturePath = "tools/data/search_index.js"

// resetFlags restores the command flag variables after a test
func resetFlags(t *testing.T) {
	t.Helper()
	oldOutput := outputFlag
	oldCategories, oldPage, oldLimit := flagSearchCategories, flagSearchPage, flagSearchLimit
	oldFormat, oldExportPage := flagExportFormat, flagExportPage

	outputFlag = outputText
	flagSearchCategories, flagSearchPage, flagSearchLimit = nil, "", 20
	flagExportFormat, flagExportPage = "js", ""

	t.Cleanup(func() {
		outputFlag = oldOutput
		flagSearchCategories, flagSearchPage, flagSearchLimit = oldCategories, oldPage, oldLimit
		flagExportFormat, flagExportPage = oldFormat, oldExportPage
	})
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", outputText, false},
		{"text", outputText, false},
		{"JSON", outputJSON, false},
		{"yaml", outputYAML, false},
		{"yml", outputYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := parseOutputFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseOutputFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	value := map[string]int{"entries": 30}

	var buf bytes.Buffer
	if err := render(&buf, outputText, value, func(w io.Writer) {
		fmt.Fprint(w, "30 entries")
	}); err != nil {
		t.Fatalf("render text: %v", err)
	}
	if buf.String() != "30 entries" {
		t.Errorf("text = %q", buf.String())
	}

	buf.Reset()
	if err := render(&buf, outputJSON, value, nil); err != nil {
		t.Fatalf("render json: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "{\n  \"entries\": 30\n}" {
		t.Errorf("json = %q", buf.String())
	}

	buf.Reset()
	if err := render(&buf, outputYAML, value, nil); err != nil {
		t.Fatalf("render yaml: %v", err)
	}
	if buf.String() != "entries: 30\n" {
		t.Errorf("yaml = %q", buf.String())
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"Id(d)\n\nReturns the identity", 60, "Id(d)"},
		{"  short  ", 60, "short"},
		{"abcdef", 3, "abc..."},
		{"", 10, ""},
	}

	for _, tt := range tests {
		if got := firstLine(tt.input, tt.max); got != tt.want {
			t.Errorf("firstLine(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestSearchCommand(t *testing.T) {
	resetFlags(t)
	outputFlag = outputJSON
	flagSearchCategories = []string{"function", "type"}

	cmd, buf := newTestCommand()
	if err := runSearch(cmd, []string{fixturePath, "Dynamical"}); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	var matches []searchindex.Match
	if err := json.Unmarshal(buf.Bytes(), &matches); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Entry.Title != "Destabilisation.FormatTests.check_DynamicalSystem" ||
		matches[1].Entry.Title != "Destabilisation.DynamicalSystem" {
		t.Errorf("unexpected matches: %s, %s", matches[0].Entry.Title, matches[1].Entry.Title)
	}

	flagSearchCategories = []string{"module"}
	if err := runSearch(cmd, []string{fixturePath, "dynamical"}); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestSearchCommand_Text(t *testing.T) {
	resetFlags(t)
	flagSearchLimit = 0

	cmd, buf := newTestCommand()
	if err := runSearch(cmd, []string{fixturePath, "presampl"}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(buf.String(), "4 match(es)") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := runSearch(cmd, []string{fixturePath, "kronecker"}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No entries match") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestValidateFiles(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.js")
	if err := os.WriteFile(bad, []byte(`{"docs": [{"location": "a/", "page": "A", "title": "A", "text": "", "category": "module"}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := validateFiles(context.Background(), []string{fixturePath, bad, fixturePath})
	if err != nil {
		t.Fatalf("validateFiles failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].File != fixturePath || !results[0].Valid {
		t.Errorf("result 0 = %s valid=%v", results[0].File, results[0].Valid)
	}
	if results[1].File != bad || results[1].Valid {
		t.Errorf("result 1 = %s valid=%v", results[1].File, results[1].Valid)
	}
	if results[2].File != fixturePath || !results[2].Valid {
		t.Errorf("result 2 = %s valid=%v", results[2].File, results[2].Valid)
	}

	if _, err := validateFiles(context.Background(), []string{filepath.Join(dir, "missing.js")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateCommand(t *testing.T) {
	resetFlags(t)

	cmd, buf := newTestCommand()
	if err := runValidate(cmd, []string{fixturePath}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓  ["+fixturePath+"] Valid search index: 30 entries on 5 pages") {
		t.Errorf("output = %q", buf.String())
	}

	bad := filepath.Join(t.TempDir(), "bad.js")
	if err := os.WriteFile(bad, []byte(`{"docs": [{"location": "a/", "page": "A", "title": "A", "category": "page"}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	outputFlag = outputYAML
	err := runValidate(cmd, []string{fixturePath, bad})
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected 1 of 2 invalid, got %v", err)
	}

	var results []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &results); err != nil {
		t.Fatalf("invalid YAML output: %v", err)
	}
	if len(results) != 2 || results[1]["file"] != bad || results[1]["valid"] != false {
		t.Errorf("unexpected YAML results: %v", results)
	}
}

func TestPagesCommand(t *testing.T) {
	resetFlags(t)
	outputFlag = outputYAML

	cmd, buf := newTestCommand()
	if err := runPages(cmd, []string{fixturePath}); err != nil {
		t.Fatalf("pages failed: %v", err)
	}

	var rows []pageRow
	if err := yaml.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid YAML output: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d pages, want 5", len(rows))
	}
	if rows[0].Page != "Matrices" || rows[0].Entries != 10 || rows[0].Counts[searchindex.CategoryFunction] != 6 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[3].Page != "Index" || rows[3].Path != "" {
		t.Errorf("unexpected Index row: %+v", rows[3])
	}
}

func TestExportCommand(t *testing.T) {
	resetFlags(t)

	original, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatal(err)
	}

	cmd, buf := newTestCommand()
	if err := runExport(cmd, []string{fixturePath}); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), original) {
		t.Error("js export differs from the input file")
	}

	buf.Reset()
	flagExportFormat = "json"
	flagExportPage = "Home"
	if err := runExport(cmd, []string{fixturePath}); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	idx, err := searchindex.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if idx.Len() != 4 {
		t.Errorf("Home export has %d entries, want 4", idx.Len())
	}

	flagExportPage = "Nowhere"
	if err := runExport(cmd, []string{fixturePath}); err == nil {
		t.Error("expected error for unknown page")
	}
}
