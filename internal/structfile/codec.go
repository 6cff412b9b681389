package structfile

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.yaml.in/yaml/v3"

	"github.com/monokit-dev/monokit/internal/errs"
)

const filePerm = 0o644

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(fsys billy.Basic, path string, v any) error {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return errs.IO(err, "reading the json file at '%s'", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.IO(err, "parsing the json file at '%s'", path)
	}
	return nil
}

// WriteJSON encodes v with two-space indentation and a trailing newline,
// creating parent directories as needed. HTML characters are not escaped.
func WriteJSON(fsys billy.Filesystem, path string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errs.IO(err, "encoding the json file at '%s'", path)
	}
	return writeFile(fsys, path, data, "json")
}

// MarshalJSON is the encoding WriteJSON uses.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadYAML decodes the YAML file at path into v.
func ReadYAML(fsys billy.Basic, path string, v any) error {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return errs.IO(err, "reading the yaml file at '%s'", path)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errs.IO(err, "parsing the yaml file at '%s'", path)
	}
	return nil
}

// WriteYAML encodes v with two-space indentation, creating parent
// directories as needed.
func WriteYAML(fsys billy.Filesystem, path string, v any) error {
	data, err := MarshalYAML(v)
	if err != nil {
		return errs.IO(err, "encoding the yaml file at '%s'", path)
	}
	return writeFile(fsys, path, data, "yaml")
}

// MarshalYAML is the encoding WriteYAML uses.
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFile(fsys billy.Filesystem, path string, data []byte, kind string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.IO(err, "creating the directory for the %s file at '%s'", kind, path)
	}
	if err := util.WriteFile(fsys, path, data, filePerm); err != nil {
		return errs.IO(err, "writing the %s file at '%s'", kind, path)
	}
	return nil
}
