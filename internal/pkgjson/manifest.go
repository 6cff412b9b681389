package pkgjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/monokit-dev/monokit/internal/structfile"
)

// FileName is the manifest file name.
const FileName = "package.json"

// Well-known top-level keys.
const (
	KeyName            = "name"
	KeyVersion         = "version"
	KeyScripts         = "scripts"
	KeyDependencies    = "dependencies"
	KeyDevDependencies = "devDependencies"
	KeyPackageManager  = "packageManager"
	KeyLintStaged      = "lint-staged"
)

type object = orderedmap.OrderedMap[string, json.RawMessage]

// Manifest is an order-preserving package.json document.
type Manifest struct {
	fields *object
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{fields: orderedmap.New[string, json.RawMessage]()}
}

// Parse decodes a package.json document.
func Parse(data []byte) (*Manifest, error) {
	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads the manifest at path.
func Load(fsys billy.Basic, path string) (*Manifest, error) {
	m := New()
	if err := structfile.ReadJSON(fsys, path, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes the manifest to path with two-space indentation.
func (m *Manifest) Save(fsys billy.Filesystem, path string) error {
	return structfile.WriteJSON(fsys, path, m)
}

// MarshalJSON implements json.Marshaler.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	return encodeObject(m.fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("package.json must be a JSON object: %w", err)
	}
	m.fields = fields
	return nil
}

// Bytes returns the document as it would be saved.
func (m *Manifest) Bytes() ([]byte, error) {
	return structfile.MarshalJSON(m)
}

// Keys returns the top-level keys in document order.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, m.fields.Len())
	for p := m.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Has reports whether key is present.
func (m *Manifest) Has(key string) bool {
	_, ok := m.fields.Get(key)
	return ok
}

// String returns a top-level string field.
func (m *Manifest) String(key string) (string, bool) {
	raw, ok := m.fields.Get(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Name returns the package name, or "" when unset.
func (m *Manifest) Name() string {
	s, _ := m.String(KeyName)
	return s
}

// Set stores v under key, replacing any previous value. Existing keys keep
// their position; new keys are appended.
func (m *Manifest) Set(key string, v any) error {
	raw, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	m.fields.Set(key, raw)
	return nil
}

// SetIfAbsent stores v under key only when key is missing. It reports
// whether the document changed.
func (m *Manifest) SetIfAbsent(key string, v any) (bool, error) {
	if m.Has(key) {
		return false, nil
	}
	return true, m.Set(key, v)
}

// Section returns a string-valued object such as "scripts" or
// "dependencies". Missing sections are empty; non-string values are skipped.
func (m *Manifest) Section(key string) map[string]string {
	out := map[string]string{}
	raw, ok := m.fields.Get(key)
	if !ok {
		return out
	}
	section := orderedmap.New[string, json.RawMessage]()
	if err := section.UnmarshalJSON(raw); err != nil {
		return out
	}
	for p := section.Oldest(); p != nil; p = p.Next() {
		var s string
		if json.Unmarshal(p.Value, &s) == nil {
			out[p.Key] = s
		}
	}
	return out
}

// Dependencies returns the "dependencies" section.
func (m *Manifest) Dependencies() map[string]string { return m.Section(KeyDependencies) }

// DevDependencies returns the "devDependencies" section.
func (m *Manifest) DevDependencies() map[string]string { return m.Section(KeyDevDependencies) }

// MergeDependencies adds entries to "dependencies" and "devDependencies".
// Names already present in either section are left alone, so a package
// never ends up listed twice. It reports whether the document changed.
func (m *Manifest) MergeDependencies(deps, devDeps map[string]string) (bool, error) {
	existing := m.Dependencies()
	for name := range m.DevDependencies() {
		existing[name] = ""
	}
	filter := func(in map[string]string) map[string]string {
		out := make(map[string]string, len(in))
		for name, spec := range in {
			if _, ok := existing[name]; !ok {
				out[name] = spec
			}
		}
		return out
	}

	changedDeps, err := m.mergeSection(KeyDependencies, filter(deps), true)
	if err != nil {
		return false, err
	}
	changedDev, err := m.mergeSection(KeyDevDependencies, filter(devDeps), true)
	if err != nil {
		return false, err
	}
	return changedDeps || changedDev, nil
}

// MergeScripts adds scripts that are not defined yet. Existing scripts are
// never rewritten.
func (m *Manifest) MergeScripts(scripts map[string]string) (bool, error) {
	return m.mergeSection(KeyScripts, scripts, false)
}

// MergeSection adds missing string entries to the object under key,
// creating it when needed.
func (m *Manifest) MergeSection(key string, entries map[string]string) (bool, error) {
	return m.mergeSection(key, entries, false)
}

func (m *Manifest) mergeSection(key string, entries map[string]string, sorted bool) (bool, error) {
	if len(entries) == 0 {
		return false, nil
	}
	section := orderedmap.New[string, json.RawMessage]()
	if raw, ok := m.fields.Get(key); ok {
		if err := section.UnmarshalJSON(raw); err != nil {
			return false, fmt.Errorf("%s in package.json is not an object: %w", key, err)
		}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)

	changed := false
	for _, name := range names {
		if _, ok := section.Get(name); ok {
			continue
		}
		raw, err := marshal(entries[name])
		if err != nil {
			return false, err
		}
		section.Set(name, raw)
		changed = true
	}
	if !changed {
		return false, nil
	}
	if sorted {
		section = sortObject(section)
	}
	raw, err := encodeObject(section)
	if err != nil {
		return false, err
	}
	m.fields.Set(key, raw)
	return true, nil
}

// PackageManager parses the "packageManager" field, e.g. "pnpm@10.4.1".
func (m *Manifest) PackageManager() (name string, version *semver.Version, ok bool) {
	field, present := m.String(KeyPackageManager)
	if !present {
		return "", nil, false
	}
	name, rest, found := strings.Cut(field, "@")
	if !found || name == "" {
		return "", nil, false
	}
	// Corepack allows a "+sha..." integrity suffix.
	rest, _, _ = strings.Cut(rest, "+")
	v, err := semver.StrictNewVersion(rest)
	if err != nil {
		return "", nil, false
	}
	return name, v, true
}

func sortObject(in *object) *object {
	keys := make([]string, 0, in.Len())
	for p := in.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	slices.Sort(keys)
	out := orderedmap.New[string, json.RawMessage](orderedmap.WithCapacity[string, json.RawMessage](len(keys)))
	for _, k := range keys {
		out.Set(k, in.Value(k))
	}
	return out
}

// encodeObject writes keys in order and values verbatim. The ordered map's
// own encoder routes values through json.Marshal, which escapes "&" and
// "<" in scripts.
func encodeObject(om *object) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for p := om.Oldest(); p != nil; p = p.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := marshal(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, p.Value); err != nil {
			return nil, fmt.Errorf("encoding %q: %w", p.Key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
