package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/Alizadekh/moodweb-extension-backend/internal/domain"
	"github.com/Alizadekh/moodweb-extension-backend/internal/ports"
)

//go:embed data/prompts.yaml
var promptFS embed.FS

const embeddedFile = "data/prompts.yaml"

// entry is the YAML shape of one stage prompt.
type entry struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
}

type compiled struct {
	temperature float32
	maxTokens   int
	system      *template.Template
	user        *template.Template
}

var funcs = template.FuncMap{
	"lower": func(v any) string { return strings.ToLower(fmt.Sprint(v)) },
	"join": func(moods []domain.Mood, sep string) string {
		parts := make([]string, len(moods))
		for i, m := range moods {
			parts[i] = string(m)
		}
		return strings.Join(parts, sep)
	},
}

// Book implements ports.PromptBook over a YAML prompt file.
type Book struct {
	once   sync.Once
	load   func() ([]byte, error)
	source string
	stages map[domain.Stage]compiled
	err    error
}

// NewEmbeddedBook returns a book backed by the built-in prompts.
// Parsing happens on first use.
func NewEmbeddedBook() *Book {
	return &Book{
		load:   func() ([]byte, error) { return promptFS.ReadFile(embeddedFile) },
		source: embeddedFile,
	}
}

// NewFileBook loads and validates prompts from path.
func NewFileBook(path string) (*Book, error) {
	b := &Book{
		load:   func() ([]byte, error) { return os.ReadFile(path) },
		source: path,
	}
	b.once.Do(b.init)
	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}

// Parse compiles prompts from raw YAML. Every stage must be present.
func Parse(raw []byte) (*Book, error) {
	b := &Book{
		load:   func() ([]byte, error) { return raw, nil },
		source: "inline",
	}
	b.once.Do(b.init)
	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}

func (b *Book) init() {
	raw, err := b.load()
	if err != nil {
		b.err = fmt.Errorf("read prompts %s: %w", b.source, err)
		return
	}

	var entries map[string]entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		b.err = fmt.Errorf("parse prompts %s: %w", b.source, err)
		return
	}

	b.stages = make(map[domain.Stage]compiled, len(entries))
	for _, stage := range domain.Stages() {
		e, ok := entries[string(stage)]
		if !ok {
			b.err = fmt.Errorf("prompts %s: missing stage %s", b.source, stage)
			return
		}
		c, err := compile(stage, e)
		if err != nil {
			b.err = fmt.Errorf("prompts %s: %w", b.source, err)
			return
		}
		b.stages[stage] = c
	}
}

func compile(stage domain.Stage, e entry) (compiled, error) {
	if strings.TrimSpace(e.System) == "" || strings.TrimSpace(e.User) == "" {
		return compiled{}, fmt.Errorf("stage %s: system and user prompts are required", stage)
	}
	if e.MaxTokens <= 0 {
		return compiled{}, fmt.Errorf("stage %s: max_tokens must be positive", stage)
	}
	if e.Temperature < 0 || e.Temperature > 2 {
		return compiled{}, fmt.Errorf("stage %s: temperature must be between 0 and 2", stage)
	}

	sys, err := template.New(string(stage) + ".system").Funcs(funcs).Option("missingkey=error").Parse(e.System)
	if err != nil {
		return compiled{}, fmt.Errorf("stage %s: system template: %w", stage, err)
	}
	usr, err := template.New(string(stage) + ".user").Funcs(funcs).Option("missingkey=error").Parse(e.User)
	if err != nil {
		return compiled{}, fmt.Errorf("stage %s: user template: %w", stage, err)
	}

	return compiled{
		temperature: e.Temperature,
		maxTokens:   e.MaxTokens,
		system:      sys,
		user:        usr,
	}, nil
}

// Validate forces loading and reports any parse error.
func (b *Book) Validate() error {
	b.once.Do(b.init)
	return b.err
}

func (b *Book) Render(stage domain.Stage, vars ports.PromptVars) (ports.CompletionRequest, error) {
	b.once.Do(b.init)
	if b.err != nil {
		return ports.CompletionRequest{}, b.err
	}

	c, ok := b.stages[stage]
	if !ok {
		return ports.CompletionRequest{}, fmt.Errorf("no prompt for stage %s", stage)
	}

	if vars.Moods == nil {
		vars.Moods = domain.Moods()
	}

	sys, err := execute(c.system, vars)
	if err != nil {
		return ports.CompletionRequest{}, err
	}
	usr, err := execute(c.user, vars)
	if err != nil {
		return ports.CompletionRequest{}, err
	}

	return ports.CompletionRequest{
		System:      sys,
		User:        usr,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}, nil
}

func execute(t *template.Template, vars ports.PromptVars) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
