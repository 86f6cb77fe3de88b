package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/axisem/internal/dag"
)

// ErrInvalidPipeline is returned by Validate.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Input is the resource every pipeline starts with.
const Input = "params"

// Untimed is the level of stages that bypass the diagnostic timer.
const Untimed = -1

// Stage is one step of the preloop.
type Stage struct {
	Name string
	// Level is the timer nesting level, or Untimed.
	Level    int
	Needs    []string
	Provides []string
	Run      func(ctx context.Context, env *Env, p *Preloop) error
	// Substages run after Run, inside the parent's timer section.
	Substages []Stage
}

// StageError reports the stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Validate checks that stage names are unique, that every need is provided
// by exactly one earlier stage or by Input, and that the resulting graph is
// acyclic and consistent with the listed order.
func Validate(stages []Stage) error {
	g := dag.New()
	order := make([]string, 0, len(stages))
	providers := map[string]string{Input: ""}

	for _, st := range stages {
		if st.Name == "" {
			return fmt.Errorf("%w: unnamed stage", ErrInvalidPipeline)
		}
		if slices.Contains(order, st.Name) {
			return fmt.Errorf("%w: stage %q listed twice", ErrInvalidPipeline, st.Name)
		}
		g.AddNode(st.Name)
		order = append(order, st.Name)
		for _, r := range st.Provides {
			if prev, ok := providers[r]; ok {
				if prev == "" {
					prev = "the input"
				}
				return fmt.Errorf("%w: %q provided by both %s and %q", ErrInvalidPipeline, r, prev, st.Name)
			}
			providers[r] = st.Name
		}
	}

	for _, st := range stages {
		for _, need := range st.Needs {
			from, ok := providers[need]
			if !ok {
				return fmt.Errorf("%w: stage %q needs %q, which nothing provides", ErrInvalidPipeline, st.Name, need)
			}
			if from == "" {
				continue
			}
			if err := g.AddEdge(from, st.Name); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
	}
	if err := g.CheckOrder(order); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
	}
	return nil
}
