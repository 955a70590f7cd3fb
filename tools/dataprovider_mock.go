package tools

import (
	"io/fs"
)

// MockDataProvider implements DataProvider from an in-memory map
type MockDataProvider struct {
	files map[string][]byte
}

// NewMockDataProvider creates an empty mock data provider
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{
		files: make(map[string][]byte),
	}
}

// AddFile adds a file to the mock provider
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.files[name] = content
}

func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	content, exists := m.files[name]
	if !exists {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// SetDefaultDataProvider replaces the provider used for the bundled search
// index. Tests use it to inject a MockDataProvider.
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider restores the embedded provider
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
