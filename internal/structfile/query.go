package structfile

import (
	"encoding/json"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"

	"github.com/monokit-dev/monokit/internal/errs"
)

// Lookup evaluates a JSONPath expression such as "$.name" against the JSON
// file at path and returns every match.
func Lookup(fsys billy.Basic, path, expr string) ([]any, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", expr, err)
	}
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, errs.IO(err, "reading the json file at '%s'", path)
	}
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errs.IO(err, "parsing the json file at '%s'", path)
	}
	return x.Get(root), nil
}

// LookupString returns the first string match of expr. The bool is false
// when nothing matched or the first match is not a string.
func LookupString(fsys billy.Basic, path, expr string) (string, bool, error) {
	results, err := Lookup(fsys, path, expr)
	if err != nil {
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}
	s, ok := results[0].(string)
	return s, ok, nil
}
