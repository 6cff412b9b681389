// Package logging configures the process-wide zerolog logger. Commands log
// through github.com/rs/zerolog/log; output goes to stderr so it never mixes
// with generated content printed on stdout.
package logging
