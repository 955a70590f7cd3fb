package tools

import (
	"io/fs"
	"testing"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

func TestMockDataProvider_ReadFile(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile("data/test.js", []byte("test content"))

	content, err := mock.ReadFile("data/test.js")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != "test content" {
		t.Errorf("Expected 'test content', got: %s", string(content))
	}

	_, err = mock.ReadFile("data/missing.js")
	if err != fs.ErrNotExist {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}
}

func TestMockDataProvider_SetAndReset(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile(embeddedSource, []byte(`{"docs": []}`))

	originalProvider := defaultDataProvider
	defer func() {
		defaultDataProvider = originalProvider
	}()

	SetDefaultDataProvider(mock)

	content, err := defaultDataProvider.ReadFile(embeddedSource)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != `{"docs": []}` {
		t.Errorf("Expected mock content, got: %s", string(content))
	}

	ResetDefaultDataProvider()

	if defaultDataProvider == mock {
		t.Error("Expected defaultDataProvider to be reset")
	}
}

func TestEmbeddedDataProvider(t *testing.T) {
	provider := NewEmbeddedDataProvider()

	data, err := provider.ReadFile(embeddedSource)
	if err != nil {
		t.Fatalf("Embedded search index missing: %v", err)
	}

	idx, err := searchindex.Parse(data)
	if err != nil {
		t.Fatalf("Embedded search index does not parse: %v", err)
	}
	if idx.Len() == 0 {
		t.Error("Embedded search index is empty")
	}

	violations, err := searchindex.Validate(data)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("Embedded search index has schema violations: %+v", violations)
	}
}
