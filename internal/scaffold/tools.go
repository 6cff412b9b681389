package scaffold

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/resolve"
)

// Tool is a dev tool monokit knows how to configure.
type Tool struct {
	Name     string
	Config   string
	Packages []string
	Scripts  map[string]string
	// LintStaged maps a staged-file glob to the command run on it by the
	// pre-commit hook.
	LintStaged map[string]string
}

var tools = map[string]Tool{
	"oxlint": {
		Name:       "oxlint",
		Config:     ".oxlintrc.json",
		Packages:   []string{"oxlint"},
		Scripts:    map[string]string{"lint": "oxlint"},
		LintStaged: map[string]string{"*.{js,jsx,ts,tsx}": "oxlint"},
	},
	"eslint": {
		Name:       "eslint",
		Config:     "eslint.config.js",
		Packages:   []string{"eslint", "@eslint/js", "typescript-eslint"},
		Scripts:    map[string]string{"lint": "eslint ."},
		LintStaged: map[string]string{"*.{js,jsx,ts,tsx}": "eslint --fix"},
	},
	"vitest": {
		Name:     "vitest",
		Config:   "vitest.config.ts",
		Packages: []string{"vitest"},
		Scripts:  map[string]string{"test": "vitest run", "test:watch": "vitest"},
	},
	"tsdown": {
		Name:     "tsdown",
		Config:   "tsdown.config.ts",
		Packages: []string{"tsdown"},
		Scripts:  map[string]string{"build": "tsdown"},
	},
	"moon": {
		Name:     "moon",
		Config:   "moon.yml",
		Packages: []string{"@moonrepo/cli"},
	},
}

// ToolNames returns every known tool, sorted.
func ToolNames() []string {
	return slices.Sorted(maps.Keys(tools))
}

// LookupTools returns the tools for names in the order given, dropping
// duplicates. Unknown names fail with suggestions.
func LookupTools(names []string) ([]Tool, error) {
	var out []Tool
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		t, ok := tools[name]
		if !ok {
			reason := "unknown tool; available: " + strings.Join(ToolNames(), ", ")
			if s := Suggest(name); len(s) > 0 {
				reason = fmt.Sprintf("unknown tool, did you mean %s?", strings.Join(s, " or "))
			}
			return nil, errs.Invalid("tool", name, reason)
		}
		seen[name] = true
		out = append(out, t)
	}
	return out, nil
}

// Suggest returns up to two known tool names that fuzzily match name.
func Suggest(name string) []string {
	matches := fuzzy.Find(name, ToolNames())
	var out []string
	for _, m := range matches {
		out = append(out, m.Str)
		if len(out) == 2 {
			break
		}
	}
	return out
}

func toolRequests(selected []Tool) []resolve.PackageRequest {
	var reqs []resolve.PackageRequest
	for _, t := range selected {
		for _, pkg := range t.Packages {
			reqs = append(reqs, resolve.PackageRequest{Name: pkg, Dev: true, CatalogEligible: true})
		}
	}
	return reqs
}

func toolScripts(selected []Tool) map[string]string {
	scripts := map[string]string{}
	for _, t := range selected {
		for k, v := range t.Scripts {
			if _, ok := scripts[k]; !ok {
				scripts[k] = v
			}
		}
	}
	return scripts
}

func lintStaged(selected []Tool) map[string]string {
	entries := map[string]string{}
	for _, t := range selected {
		for glob, cmd := range t.LintStaged {
			if _, ok := entries[glob]; !ok {
				entries[glob] = cmd
			}
		}
	}
	return entries
}
