package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderEmbedded(t *testing.T) {
	loader := NewLoader(t.TempDir())

	out, err := loader.Render("analyze_requirement", map[string]any{
		"Title": "Add SSO login",
		"Body":  "Users need corporate IdP sign-in.",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Add SSO login") {
		t.Errorf("rendered prompt missing title:\n%s", out)
	}
	if !strings.Contains(out, "Acceptance criteria") {
		t.Errorf("rendered prompt missing instructions:\n%s", out)
	}
	if strings.Contains(out, "Additional Context") {
		t.Error("empty Context still rendered its section")
	}
}

func TestRenderWithOptionalContext(t *testing.T) {
	loader := NewLoader(t.TempDir())

	out, err := loader.Render("analyze_requirement", map[string]any{
		"Title":   "Add SSO login",
		"Body":    "Body text.",
		"Context": "Existing auth uses LDAP.",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Additional Context") || !strings.Contains(out, "LDAP") {
		t.Errorf("context section missing:\n%s", out)
	}
}

func TestDirectoryOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	promptsDir := filepath.Join(dir, "prompts")
	if err := os.MkdirAll(promptsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	override := "Custom template for {{ .Title }}"
	if err := os.WriteFile(filepath.Join(promptsDir, "analyze_requirement.txt"), []byte(override), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir)

	out, err := loader.Render("analyze_requirement", map[string]any{"Title": "X"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "Custom template for X" {
		t.Errorf("Render() = %q, override not used", out)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	loader := NewLoader(t.TempDir())

	if _, err := loader.Render("does_not_exist", nil); err == nil {
		t.Error("Render() succeeded for a missing template")
	}
	if loader.Exists("does_not_exist") {
		t.Error("Exists() = true for a missing template")
	}
	if !loader.Exists("recommend_solution") {
		t.Error("Exists() = false for an embedded template")
	}
}

func TestList(t *testing.T) {
	loader := NewLoader(t.TempDir())

	names := loader.List()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	for _, want := range []string{"analyze_requirement", "recommend_solution", "summarize_ticket"} {
		if !found[want] {
			t.Errorf("List() missing %q: %v", want, names)
		}
	}
}

func TestTemplateFuncs(t *testing.T) {
	dir := t.TempDir()
	promptsDir := filepath.Join(dir, "prompts")
	if err := os.MkdirAll(promptsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	tmpl := `{{ title .Name }}: {{ default "unset" .Missing }} {{ indent 2 .Block }}`
	if err := os.WriteFile(filepath.Join(promptsDir, "funcs.txt"), []byte(tmpl), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir)

	out, err := loader.Render("funcs", map[string]any{
		"Name":  "status report",
		"Block": "a\nb",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Status Report") {
		t.Errorf("title func not applied: %q", out)
	}
	if !strings.Contains(out, "unset") {
		t.Errorf("default func not applied: %q", out)
	}
	if !strings.Contains(out, "  a\n  b") {
		t.Errorf("indent func not applied: %q", out)
	}
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	promptsDir := filepath.Join(dir, "prompts")
	if err := os.MkdirAll(promptsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(promptsDir, "cached.txt")
	if err := os.WriteFile(path, []byte("one"), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir)
	if out, _ := loader.Render("cached", nil); out != "one" {
		t.Fatalf("Render() = %q, want one", out)
	}

	if err := os.WriteFile(path, []byte("two"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Cached until cleared.
	if out, _ := loader.Render("cached", nil); out != "one" {
		t.Errorf("Render() = %q, want cached one", out)
	}
	loader.ClearCache()
	if out, _ := loader.Render("cached", nil); out != "two" {
		t.Errorf("Render() after ClearCache() = %q, want two", out)
	}
}
