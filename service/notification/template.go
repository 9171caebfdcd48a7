package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Template is a named subject/body pair written in text/template syntax.
// Variables are referenced as {{.requester_name}}.
type Template struct {
	Key     string `yaml:"key" json:"key"`
	Subject string `yaml:"subject" json:"subject"`
	Body    string `yaml:"body" json:"body"`
}

// Rendered is a template executed against a variable set.
type Rendered struct {
	Subject string
	Body    string
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Catalogue compiles and renders notification templates.
type Catalogue struct {
	mu        sync.RWMutex
	templates map[string]*compiled
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{templates: map[string]*compiled{}}
}

// DefaultCatalogue returns the built-in templates.
func DefaultCatalogue() *Catalogue {
	c := NewCatalogue()
	for _, t := range defaultTemplates {
		if err := c.Register(t); err != nil {
			panic(err)
		}
	}
	return c
}

var defaultTemplates = []Template{
	{
		Key:     TemplateVerificationCode,
		Subject: "Your verification code",
		Body: `Hello {{.requester_name}},

Your verification code is {{.code}}. It expires at {{.expires_at}}.

If you did not request this, you can ignore this message.
`,
	},
	{
		Key:     TemplateApproved,
		Subject: "Your request was approved",
		Body: `Hello {{.requester_name}},

Your request ({{.action_description}}) was approved.
{{if .content_title}}
Title: {{.content_title}}
{{end}}{{if .requested_status}}Status: {{.requested_status}}
{{end}}`,
	},
	{
		Key:     TemplateDenied,
		Subject: "Your request was not approved",
		Body: `Hello {{.requester_name}},

Your request ({{.action_description}}) was not approved.

Reason: {{.denial_reason}}
`,
	},
}

// Register adds or replaces a template.
func (c *Catalogue) Register(t Template) error {
	key := strings.TrimSpace(t.Key)
	if key == "" {
		return fmt.Errorf("template key was empty")
	}
	subject, err := template.New(key + ".subject").Option("missingkey=zero").Parse(t.Subject)
	if err != nil {
		return fmt.Errorf("parse template %s subject: %w", key, err)
	}
	body, err := template.New(key + ".body").Option("missingkey=zero").Parse(t.Body)
	if err != nil {
		return fmt.Errorf("parse template %s body: %w", key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[key] = &compiled{subject: subject, body: body}
	return nil
}

// Has reports whether key is registered.
func (c *Catalogue) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.templates[key]
	return ok
}

// Render executes the template registered under key.
func (c *Catalogue) Render(key string, vars map[string]string) (*Rendered, error) {
	c.mu.RLock()
	tmpl, ok := c.templates[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %s not found", key)
	}
	if vars == nil {
		vars = map[string]string{}
	}
	var subject, body strings.Builder
	if err := tmpl.subject.Execute(&subject, vars); err != nil {
		return nil, fmt.Errorf("render template %s subject: %w", key, err)
	}
	if err := tmpl.body.Execute(&body, vars); err != nil {
		return nil, fmt.Errorf("render template %s body: %w", key, err)
	}
	return &Rendered{Subject: strings.TrimSpace(subject.String()), Body: body.String()}, nil
}

type catalogueDocument struct {
	Templates []Template `yaml:"templates"`
}

// LoadCatalogue reads a YAML template catalogue from URL and layers it on
// top of the built-in templates.
func LoadCatalogue(ctx context.Context, fs afs.Service, URL string) (*Catalogue, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates %s: %w", URL, err)
	}
	var doc catalogueDocument
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode templates %s: %w", URL, err)
	}
	catalogue := DefaultCatalogue()
	for _, t := range doc.Templates {
		if err = catalogue.Register(t); err != nil {
			return nil, err
		}
	}
	return catalogue, nil
}
