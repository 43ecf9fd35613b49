package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTOMLLoader_Load(t *testing.T) {
	path := writeSettings(t, `
saveInputs = false
loadExamples = true
showInternalTools = "yes"
`)

	values, err := NewTOMLLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if values["saveInputs"] != false || values["loadExamples"] != true {
		t.Errorf("values = %v", values)
	}
	if values["showInternalTools"] != "yes" {
		t.Errorf("showInternalTools = %v, want raw string", values["showInternalTools"])
	}
}

func TestTOMLLoader_MissingFile(t *testing.T) {
	values, err := NewTOMLLoader(filepath.Join(t.TempDir(), "settings.toml")).Load()
	if err != nil || values != nil {
		t.Errorf("Load() = %v, %v; want nil, nil", values, err)
	}
}

func TestTOMLLoader_EmptyFile(t *testing.T) {
	values, err := NewTOMLLoader(writeSettings(t, "# nothing\n")).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if values == nil || len(values) != 0 {
		t.Errorf("values = %v, want empty map", values)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	path := writeSettings(t, "loadExamples = true\nsaveInputs = tru\n")

	_, err := NewTOMLLoader(path).Load()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Path != path || pe.Line != 2 {
		t.Errorf("ParseError = %+v", pe)
	}
	if !strings.Contains(pe.Error(), "line 2") {
		t.Errorf("Error() = %q", pe.Error())
	}
}

func TestWriteTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")

	if err := WriteTOML(path, map[string]any{"saveInputs": false, "dialogIsModal": true}); err != nil {
		t.Fatalf("WriteTOML: %v", err)
	}

	values, err := NewTOMLLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if values["saveInputs"] != false || values["dialogIsModal"] != true {
		t.Errorf("values = %v", values)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}
