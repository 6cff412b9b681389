package scaffold

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// StepError reports which step of a Pipeline failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

type step struct {
	name string
	run  func(context.Context) error
}

// Pipeline runs named write steps in order. It stops at the first failure;
// steps that already completed are not rolled back.
type Pipeline struct {
	steps []step
	done  []string
}

// Add appends a step.
func (p *Pipeline) Add(name string, run func(context.Context) error) {
	p.steps = append(p.steps, step{name: name, run: run})
}

// Run executes the steps and returns a *StepError naming the failed one.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		if err := s.run(ctx); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		log.Debug().Str("step", s.name).Msg("step complete")
		p.done = append(p.done, s.name)
	}
	return nil
}

// Completed returns the names of the steps that finished.
func (p *Pipeline) Completed() []string {
	return p.done
}
