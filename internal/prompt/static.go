package prompt

import "slices"

// Static answers every question without user input: Confirm returns
// AssumeYes, and every other question returns its default. It backs --yes
// and non-interactive runs.
type Static struct {
	AssumeYes bool
	// Answers overrides the answer for specific messages.
	Answers map[string]any
}

// Confirm implements Prompter.
func (s Static) Confirm(message string, def bool) (bool, error) {
	if v, ok := s.Answers[message].(bool); ok {
		return v, nil
	}
	return s.AssumeYes, nil
}

// Input implements Prompter.
func (s Static) Input(message, def string) (string, error) {
	if v, ok := s.Answers[message].(string); ok {
		return v, nil
	}
	return def, nil
}

// Select implements Prompter.
func (s Static) Select(message string, options []string, def string) (string, error) {
	if v, ok := s.Answers[message].(string); ok {
		return v, nil
	}
	if def == "" && len(options) > 0 {
		return options[0], nil
	}
	return def, nil
}

// MultiSelect implements Prompter.
func (s Static) MultiSelect(message string, options []string, defs []string) ([]string, error) {
	if v, ok := s.Answers[message].([]string); ok {
		return v, nil
	}
	return slices.Clone(defs), nil
}
