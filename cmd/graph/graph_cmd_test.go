package graph

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, dir, name string, imports ...string) {
	t.Helper()

	var refs []string
	for _, imp := range imports {
		refs = append(refs, fmt.Sprintf(`{"corpusPath": %q}`, imp))
	}
	content := fmt.Sprintf(`{"documentName": %q, "imports": [%s]}`, name, strings.Join(refs, ", "))
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
}

func TestGraph_RendersDOTEdges(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "main.cdm.json", "second.cdm.json")
	writeDoc(t, dir, "second.cdm.json")

	cmd := NewCommand()
	cmd.SetArgs([]string{"-r", dir, "main.cdm.json"})

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("cmd.Execute() error = %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, `"local:/main.cdm.json" -> "local:/second.cdm.json";`) {
		t.Fatalf("expected import edge in DOT output, got:\n%s", output)
	}
	if !strings.Contains(output, `label="local:/main.cdm.json";`) {
		t.Fatalf("expected root path as default label, got:\n%s", output)
	}
}

func TestGraph_UnresolvedImportIsDashedLeaf(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "main.cdm.json", "missing.cdm.json")

	cmd := NewCommand()
	cmd.SetArgs([]string{"-r", dir, "main.cdm.json"})

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("cmd.Execute() error = %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, `"local:/missing.cdm.json" [label="missing.cdm.json", style="filled,dashed"`) {
		t.Fatalf("expected dashed unresolved node, got:\n%s", output)
	}
	if !strings.Contains(stderr.String(), "Warning:") {
		t.Fatalf("expected resolution warning on stderr, got:\n%s", stderr.String())
	}
}

func TestGraph_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "main.cdm.json", "second.cdm.json")
	writeDoc(t, dir, "second.cdm.json")

	cmd := NewCommand()
	cmd.SetArgs([]string{"-r", dir, "-f", "json", "-l", "demo", "main.cdm.json"})

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("cmd.Execute() error = %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, `"label": "demo"`) {
		t.Fatalf("expected label in JSON output, got:\n%s", output)
	}
	if !strings.Contains(output, `"local:/second.cdm.json"`) {
		t.Fatalf("expected import target in JSON output, got:\n%s", output)
	}
}

func TestGraph_UnknownFormatFails(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"-f", "svg", "main.cdm.json"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown format, got nil")
	}
}
