package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"text/template"
)

// PromptTemplate is a text/template whose parsed form can be swapped
// atomically. Missing keys are errors rather than "<no value>".
type PromptTemplate struct {
	name  string
	path  string
	funcs template.FuncMap
	cur   atomic.Pointer[compiledPrompt]
}

type compiledPrompt struct {
	tmpl   *template.Template
	digest string
}

// NewPromptTemplate loads the template file at path; Reload rereads it.
func NewPromptTemplate(path string, funcs template.FuncMap) (*PromptTemplate, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("prompt template path is empty")
	}
	t := &PromptTemplate{name: filepath.Base(path), path: path, funcs: funcs}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewInlinePromptTemplate compiles text held in memory, such as an embedded
// default prompt.
func NewInlinePromptTemplate(name, text string, funcs template.FuncMap) (*PromptTemplate, error) {
	t := &PromptTemplate{name: name, funcs: funcs}
	c, err := t.compile([]byte(text))
	if err != nil {
		return nil, err
	}
	t.cur.Store(c)
	return t, nil
}

func (t *PromptTemplate) Name() string { return t.name }

func (t *PromptTemplate) Render(data any) (string, error) {
	c := t.cur.Load()
	if c == nil {
		return "", fmt.Errorf("prompt template %q not parsed", t.name)
	}
	var sb strings.Builder
	if err := c.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute prompt template %q: %w", t.name, err)
	}
	return sb.String(), nil
}

// Reload rereads the file. Inline templates have no file and keep their text.
// On error the previous version stays active.
func (t *PromptTemplate) Reload() error {
	if t.path == "" {
		return nil
	}
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read prompt template %q: %w", t.path, err)
	}
	c, err := t.compile(raw)
	if err != nil {
		return err
	}
	t.cur.Store(c)
	return nil
}

// Digest is the sha256 of the active template text.
func (t *PromptTemplate) Digest() string {
	if c := t.cur.Load(); c != nil {
		return c.digest
	}
	return ""
}

func (t *PromptTemplate) compile(text []byte) (*compiledPrompt, error) {
	tmpl := template.New(t.name).Option("missingkey=error")
	if len(t.funcs) > 0 {
		tmpl.Funcs(t.funcs)
	}
	if _, err := tmpl.Parse(string(text)); err != nil {
		return nil, fmt.Errorf("parse prompt template %q: %w", t.name, err)
	}
	return &compiledPrompt{tmpl: tmpl, digest: DigestString(string(text))}, nil
}

// DigestString returns the hex sha256 of s.
func DigestString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
