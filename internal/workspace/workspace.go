package workspace

import (
	"fmt"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.yaml.in/yaml/v3"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/structfile"
)

// FileName is the workspace file name.
const FileName = "pnpm-workspace.yaml"

// Main names the default catalog (the top-level "catalog" key).
const Main = ""

const (
	keyPackages = "packages"
	keyCatalog  = "catalog"
	keyCatalogs = "catalogs"
)

// Entry is one catalog line.
type Entry struct {
	Name string
	Spec string
}

// File is a parsed pnpm-workspace.yaml.
type File struct {
	doc *yaml.Node
}

// New returns an empty workspace file.
func New() *File {
	f := &File{}
	f.init()
	return f
}

// Parse decodes a workspace document.
func Parse(data []byte) (*File, error) {
	f := &File{doc: &yaml.Node{}}
	if err := yaml.Unmarshal(data, f.doc); err != nil {
		return nil, err
	}
	if err := f.init(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads the workspace file at path.
func Load(fsys billy.Basic, path string) (*File, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, errs.IO(err, "reading the yaml file at '%s'", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errs.IO(err, "parsing the yaml file at '%s'", path)
	}
	return f, nil
}

// Save writes the file back to path.
func (f *File) Save(fsys billy.Filesystem, path string) error {
	return structfile.WriteYAML(fsys, path, f.doc)
}

// Bytes returns the document as it would be saved.
func (f *File) Bytes() ([]byte, error) {
	return structfile.MarshalYAML(f.doc)
}

// Decode returns the document as plain Go values, for schema validation.
func (f *File) Decode() (any, error) {
	var v any
	if err := f.doc.Decode(&v); err != nil {
		return nil, err
	}
	if v == nil {
		v = map[string]any{}
	}
	return v, nil
}

func (f *File) init() error {
	if f.doc == nil || f.doc.Kind == 0 {
		f.doc = &yaml.Node{Kind: yaml.DocumentNode}
	}
	if f.doc.Kind != yaml.DocumentNode {
		return fmt.Errorf("unexpected yaml node kind %d", f.doc.Kind)
	}
	if len(f.doc.Content) == 0 {
		f.doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	if f.root().Kind != yaml.MappingNode {
		return fmt.Errorf("%s must be a mapping", FileName)
	}
	return nil
}

func (f *File) root() *yaml.Node { return f.doc.Content[0] }

// Packages returns the workspace package globs.
func (f *File) Packages() []string {
	seq := lookup(f.root(), keyPackages)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	var out []string
	for _, n := range seq.Content {
		if n.Kind == yaml.ScalarNode {
			out = append(out, n.Value)
		}
	}
	return out
}

// AddPackages appends globs that are not listed yet and reports whether
// anything was added.
func (f *File) AddPackages(globs ...string) bool {
	seq := lookup(f.root(), keyPackages)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		seq = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		setKey(f.root(), keyPackages, seq)
	}
	existing := f.Packages()
	changed := false
	for _, g := range globs {
		if slices.Contains(existing, g) {
			continue
		}
		seq.Content = append(seq.Content, scalar(g))
		existing = append(existing, g)
		changed = true
	}
	return changed
}

// HasCatalog reports whether the catalog exists in the file. Main exists
// once it has been written.
func (f *File) HasCatalog(catalog string) bool {
	return f.catalogNode(catalog, false) != nil
}

// CatalogNames returns the named catalogs in document order.
func (f *File) CatalogNames() []string {
	catalogs := lookup(f.root(), keyCatalogs)
	if catalogs == nil || catalogs.Kind != yaml.MappingNode {
		return nil
	}
	names := make([]string, 0, len(catalogs.Content)/2)
	for i := 0; i+1 < len(catalogs.Content); i += 2 {
		names = append(names, catalogs.Content[i].Value)
	}
	return names
}

// Catalog returns the main catalog.
func (f *File) Catalog() map[string]string {
	return toMap(f.Entries(Main))
}

// NamedCatalogs returns every named catalog.
func (f *File) NamedCatalogs() map[string]map[string]string {
	out := map[string]map[string]string{}
	for _, name := range f.CatalogNames() {
		out[name] = toMap(f.Entries(name))
	}
	return out
}

// Entries returns a catalog's entries in document order.
func (f *File) Entries(catalog string) []Entry {
	node := f.catalogNode(catalog, false)
	if node == nil {
		return nil
	}
	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		entries = append(entries, Entry{Name: node.Content[i].Value, Spec: node.Content[i+1].Value})
	}
	return entries
}

// Entry looks up a single catalog entry.
func (f *File) Entry(catalog, name string) (string, bool) {
	node := f.catalogNode(catalog, false)
	if node == nil {
		return "", false
	}
	v := lookup(node, name)
	if v == nil {
		return "", false
	}
	return v.Value, true
}

// SetEntry stores spec for name, replacing an existing value in place.
func (f *File) SetEntry(catalog, name, spec string) {
	node := f.catalogNode(catalog, true)
	if v := lookup(node, name); v != nil {
		v.Kind = yaml.ScalarNode
		v.Tag = "!!str"
		v.Value = spec
		return
	}
	node.Content = append(node.Content, scalar(name), scalar(spec))
}

// AddEntry stores spec for name only when name is not in the catalog yet.
// It reports whether the entry was added.
func (f *File) AddEntry(catalog, name, spec string) bool {
	if _, ok := f.Entry(catalog, name); ok {
		return false
	}
	f.SetEntry(catalog, name, spec)
	return true
}

func (f *File) catalogNode(catalog string, create bool) *yaml.Node {
	if catalog == Main {
		n := lookup(f.root(), keyCatalog)
		if n == nil || n.Kind != yaml.MappingNode {
			if !create {
				return nil
			}
			n = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			setKey(f.root(), keyCatalog, n)
		}
		return n
	}

	catalogs := lookup(f.root(), keyCatalogs)
	if catalogs == nil || catalogs.Kind != yaml.MappingNode {
		if !create {
			return nil
		}
		catalogs = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setKey(f.root(), keyCatalogs, catalogs)
	}
	n := lookup(catalogs, catalog)
	if n == nil || n.Kind != yaml.MappingNode {
		if !create {
			return nil
		}
		n = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setKey(catalogs, catalog, n)
	}
	return n
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func setKey(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content, scalar(key), value)
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func toMap(entries []Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Spec
	}
	return out
}
