// Package prompt asks the user questions. Commands depend on the Prompter
// interface so that flags, --yes and tests can answer without a terminal.
//
// A prompt that cannot be answered (end of input, ctrl+c) returns
// errs.ErrCancelled; callers propagate it unchanged.
package prompt
