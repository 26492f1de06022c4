// Package targets orchestrates the top-level outputs of a firehose run.
//
// Each target renders one output tree. Targets may depend on others; they are
// grouped into topological levels, the targets of one level run concurrently
// and levels run strictly in order.
package targets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ErrCycle is returned by Levels when the dependency graph is not a DAG.
var ErrCycle = errors.New("cyclic dependencies detected among targets")

// Step is one unit of work of a target.
type Step func(ctx context.Context) error

type Target struct {
	Name string
	Deps []string
	Run  Step
	// Post runs after Run succeeded, e.g. an external code generator that
	// consumes Run's output.
	Post Step
}

func (t *Target) String() string { return t.Name }

// Set is an ordered collection of targets addressable by name.
type Set struct {
	order  []*Target
	byName map[string]*Target
}

func NewSet(targets ...*Target) *Set {
	s := &Set{byName: make(map[string]*Target, len(targets))}
	for _, t := range targets {
		s.order = append(s.order, t)
		s.byName[t.Name] = t
	}
	return s
}

// All returns the targets in declaration order.
func (s *Set) All() []*Target { return slices.Clone(s.order) }

func (s *Set) Get(name string) (*Target, bool) {
	t, ok := s.byName[name]
	return t, ok
}

func (s *Set) Names() []string {
	names := make([]string, 0, len(s.order))
	for _, t := range s.order {
		names = append(names, t.Name)
	}
	return names
}

// Select resolves names to targets, failing on the first unknown name.
func (s *Set) Select(names []string) ([]*Target, error) {
	out := make([]*Target, 0, len(names))
	for _, n := range names {
		t, ok := s.byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown target %q (must be one of: %v)", n, s.Names())
		}
		out = append(out, t)
	}
	return out, nil
}

// Collect returns selected plus everything it transitively depends on.
func (s *Set) Collect(selected []*Target) (map[string]*Target, error) {
	all := map[string]*Target{}
	visited := map[string]bool{}

	var visit func(t *Target) error
	visit = func(t *Target) error {
		if visited[t.Name] {
			return nil
		}
		visited[t.Name] = true
		for _, dep := range t.Deps {
			d, ok := s.byName[dep]
			if !ok {
				return fmt.Errorf("dependency '%s' for target '%s' not found", dep, t.Name)
			}
			if err := visit(d); err != nil {
				return err
			}
		}
		all[t.Name] = t
		return nil
	}

	for _, t := range selected {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// Levels sorts targets topologically. Every level only depends on earlier
// levels; names inside a level are sorted.
func Levels(targets map[string]*Target) ([][]string, error) {
	dependents := map[string][]string{}
	inDegree := make(map[string]int, len(targets))
	for name, t := range targets {
		inDegree[name] = len(t.Deps)
		for _, dep := range t.Deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	var levels [][]string
	for len(ready) > 0 {
		slices.Sort(ready)
		level := ready
		ready = nil
		for _, name := range level {
			for _, d := range dependents[name] {
				inDegree[d]--
				if inDegree[d] == 0 {
					ready = append(ready, d)
				}
			}
		}
		levels = append(levels, level)
	}

	for name, deg := range inDegree {
		if deg > 0 {
			return nil, fmt.Errorf("target %s: %w", name, ErrCycle)
		}
	}
	return levels, nil
}

// Runner executes a selection of targets.
type Runner struct {
	Set    *Set
	Logger *slog.Logger
	// Limit caps concurrent targets per level; zero means twice the CPU count.
	Limit int
}

// Run executes selected and their dependencies level by level. The first
// failing target cancels the rest of its level and aborts the run.
func (r *Runner) Run(ctx context.Context, selected []*Target) error {
	all, err := r.Set.Collect(selected)
	if err != nil {
		return err
	}
	levels, err := Levels(all)
	if err != nil {
		return err
	}

	limit := r.Limit
	if limit <= 0 {
		limit = 2 * runtime.NumCPU()
	}

	for _, level := range levels {
		r.Logger.Info("Running targets in parallel", "targets", level)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for _, name := range level {
			t := all[name]
			g.Go(func() error {
				return r.runTarget(gctx, t)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runTarget(ctx context.Context, t *Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Logger.Info("Running target", "target", t.Name)
	if t.Run != nil {
		if err := t.Run(ctx); err != nil {
			return fmt.Errorf("target %s: %w", t.Name, err)
		}
	}
	if t.Post != nil {
		if err := t.Post(ctx); err != nil {
			return fmt.Errorf("target %s: post run: %w", t.Name, err)
		}
	}
	r.Logger.Debug("Target finished", "target", t.Name)
	return nil
}
