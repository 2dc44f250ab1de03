package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Default templates shipped with the library.
//
//go:embed prompts/*.txt
var embedded embed.FS

// Loader loads and renders prompt templates. Templates found in a search
// directory shadow the embedded defaults of the same name.
type Loader struct {
	dirs  []string
	cache map[string]*template.Template
	funcs template.FuncMap
}

// NewLoader creates a loader rooted at projectDir. It searches
// projectDir/.reqflow/prompts, then projectDir/prompts, then the
// embedded defaults.
func NewLoader(projectDir string) *Loader {
	return &Loader{
		dirs: []string{
			filepath.Join(projectDir, ".reqflow", "prompts"),
			filepath.Join(projectDir, "prompts"),
		},
		cache: make(map[string]*template.Template),
		funcs: templateFuncs(),
	}
}

// AddSearchDir prepends a directory to the search path.
func (l *Loader) AddSearchDir(dir string) {
	l.dirs = append([]string{dir}, l.dirs...)
}

// AddFunc registers a custom template function. It must be called before
// the first Render of any template that uses the function.
func (l *Loader) AddFunc(name string, fn any) {
	l.funcs[name] = fn
}

// Render loads the named template and executes it with vars.
func (l *Loader) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := l.template(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// Exists reports whether the named template can be resolved.
func (l *Loader) Exists(name string) bool {
	_, err := l.raw(name)
	return err == nil
}

// List returns the names of all resolvable templates, directories and
// embedded defaults combined.
func (l *Loader) List() []string {
	names := make(map[string]bool)

	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
				names[strings.TrimSuffix(entry.Name(), ".txt")] = true
			}
		}
	}

	entries, err := embedded.ReadDir("prompts")
	if err == nil {
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), ".txt") {
				names[strings.TrimSuffix(entry.Name(), ".txt")] = true
			}
		}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	return out
}

// ClearCache drops all parsed templates. Useful after editing a template
// on disk during development.
func (l *Loader) ClearCache() {
	l.cache = make(map[string]*template.Template)
}

func (l *Loader) template(name string) (*template.Template, error) {
	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}

	content, err := l.raw(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(l.funcs).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}

	l.cache[name] = tmpl
	return tmpl, nil
}

func (l *Loader) raw(name string) (string, error) {
	filename := name + ".txt"

	for _, dir := range l.dirs {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err == nil {
			return string(data), nil
		}
	}

	data, err := embedded.ReadFile("prompts/" + filename)
	if err != nil {
		return "", fmt.Errorf("prompt not found: %s", name)
	}
	return string(data), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join":     strings.Join,
		"trim":     strings.TrimSpace,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    cases.Title(language.English).String,
		"contains": strings.Contains,
		"replace":  strings.ReplaceAll,
		"indent":   indentLines,
		"default":  orDefault,
		"quote":    func(s string) string { return fmt.Sprintf("%q", s) },
	}
}

// indentLines prefixes every non-empty line with indent spaces.
func indentLines(indent int, s string) string {
	if s == "" {
		return s
	}
	prefix := strings.Repeat(" ", indent)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// orDefault returns fallback when value is nil or an empty string.
func orDefault(fallback, value any) any {
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && s == "" {
		return fallback
	}
	return value
}
