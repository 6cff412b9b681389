package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/monokit-dev/monokit/internal/errs"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var printer = message.NewPrinter(language.English)

// Schema is an embedded JSON Schema compiled on first use.
type Schema struct {
	file     string
	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

var (
	// Workspace describes pnpm-workspace.yaml.
	Workspace = &Schema{file: "pnpm-workspace.schema.json"}
	// Package describes the package.json fields monokit edits.
	Package = &Schema{file: "package.schema.json"}
)

// Result contains the outcome of a schema validation.
type Result struct {
	Valid  bool
	Issues []Issue
}

// Issue is a single validation failure.
type Issue struct {
	Path    string // instance location, e.g. "/catalogs/react19/react"
	Message string
	Keyword string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Err converts an invalid result into a ValidationError for field.
func (r *Result) Err(field string) error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		msgs[i] = issue.String()
	}
	return errs.Invalid(field, "", strings.Join(msgs, "; "))
}

func (s *Schema) load() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		data, err := schemaFS.ReadFile("schemas/" + s.file)
		if err != nil {
			s.err = fmt.Errorf("reading schema %s: %w", s.file, err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			s.err = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(s.file, doc); err != nil {
			s.err = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		s.compiled, s.err = c.Compile(s.file)
		if s.err != nil {
			s.err = fmt.Errorf("compiling schema: %w", s.err)
		}
	})
	return s.compiled, s.err
}

// ValidateYAML validates YAML (or JSON, which is YAML) bytes.
func (s *Schema) ValidateYAML(data []byte) (*Result, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return s.ValidateValue(raw)
}

// ValidateValue validates an already decoded document.
func (s *Schema) ValidateValue(v any) (*Result, error) {
	compiled, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	// Round-trip through JSON so numbers arrive as json.Number.
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = compiled.Validate(inst)
	if err == nil {
		return &Result{Valid: true}, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &Result{Issues: extractIssues(ve)}, nil
}

// ValidateFile reads path from fsys and validates it.
func (s *Schema) ValidateFile(fsys billy.Basic, path string) (*Result, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, errs.IO(err, "reading '%s' for validation", path)
	}
	return s.ValidateYAML(data)
}

func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collect(ve, &issues)
	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}

	seen := make(map[string]bool)
	var out []Issue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			out = append(out, issue)
		}
	}
	return out
}

func collect(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collect(cause, issues)
		}
		return
	}

	var keyword, msg string
	if ve.ErrorKind != nil {
		if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
			keyword = kw[len(kw)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	if keyword == "" || keyword == "$ref" || keyword == "allOf" {
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	*issues = append(*issues, Issue{Path: path, Message: msg, Keyword: keyword})
}
