package targets_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aspn-firehose/firehose/internal/codegen/targets"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func byName(set *targets.Set, names ...string) []*targets.Target {
	out, err := set.Select(names)
	if err != nil {
		panic(err)
	}
	return out
}

func diamond() *targets.Set {
	return targets.NewSet(
		&targets.Target{Name: "base"},
		&targets.Target{Name: "left", Deps: []string{"base"}},
		&targets.Target{Name: "right", Deps: []string{"base"}},
		&targets.Target{Name: "top", Deps: []string{"left", "right"}},
		&targets.Target{Name: "lonely"},
	)
}

func TestCollect(t *testing.T) {
	set := diamond()
	got, err := set.Collect(byName(set, "left"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "base")
	assert.Contains(t, got, "left")

	got, err = set.Collect(byName(set, "top", "lonely"))
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCollectUnknownDependency(t *testing.T) {
	set := targets.NewSet(&targets.Target{Name: "a", Deps: []string{"ghost"}})
	_, err := set.Collect(set.All())
	assert.ErrorContains(t, err, "dependency 'ghost' for target 'a' not found")
}

func TestSelectUnknown(t *testing.T) {
	_, err := diamond().Select([]string{"left", "nope"})
	assert.ErrorContains(t, err, `unknown target "nope"`)
}

func TestLevels(t *testing.T) {
	set := diamond()
	all, err := set.Collect(set.All())
	require.NoError(t, err)

	levels, err := targets.Levels(all)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"base", "lonely"},
		{"left", "right"},
		{"top"},
	}, levels)
}

func TestLevelsCycle(t *testing.T) {
	all := map[string]*targets.Target{
		"a": {Name: "a", Deps: []string{"b"}},
		"b": {Name: "b", Deps: []string{"a"}},
		"c": {Name: "c"},
	}
	_, err := targets.Levels(all)
	assert.ErrorIs(t, err, targets.ErrCycle)
}

func TestRunOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) targets.Step {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	set := targets.NewSet(
		&targets.Target{Name: "lcm", Run: record("lcm"), Post: record("lcm post")},
		&targets.Target{Name: "translations", Deps: []string{"lcm"}, Run: record("translations")},
		&targets.Target{Name: "marshal", Deps: []string{"lcm"}, Run: record("marshal")},
		&targets.Target{Name: "py", Run: record("py")},
	)
	r := &targets.Runner{Set: set, Logger: log.Discard()}
	require.NoError(t, r.Run(context.Background(), byName(set, "translations", "marshal")))

	require.Len(t, order, 4)
	assert.Equal(t, []string{"lcm", "lcm post"}, order[:2])
	assert.ElementsMatch(t, []string{"translations", "marshal"}, order[2:])
	assert.NotContains(t, order, "py")
}

func TestRunLevelIsConcurrent(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})
	step := func(context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil
	}

	set := targets.NewSet(
		&targets.Target{Name: "a", Run: step},
		&targets.Target{Name: "b", Run: step},
		&targets.Target{Name: "c", Run: step},
	)
	r := &targets.Runner{Set: set, Logger: log.Discard(), Limit: 3}

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), set.All()) }()

	require.Eventually(t, func() bool { return peak.Load() == 3 }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, <-done)
}

func TestRunFailureAborts(t *testing.T) {
	boom := errors.New("boom")
	var laterRan atomic.Bool

	set := targets.NewSet(
		&targets.Target{Name: "bad", Run: func(context.Context) error { return boom }},
		&targets.Target{Name: "slow", Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
		&targets.Target{Name: "later", Deps: []string{"bad"}, Run: func(context.Context) error {
			laterRan.Store(true)
			return nil
		}},
	)
	r := &targets.Runner{Set: set, Logger: log.Discard()}
	err := r.Run(context.Background(), set.All())
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "target bad")
	assert.False(t, laterRan.Load())
}

func TestRunPostFailure(t *testing.T) {
	set := targets.NewSet(&targets.Target{
		Name: "lcm",
		Run:  func(context.Context) error { return nil },
		Post: func(context.Context) error { return errors.New("lcm-gen missing") },
	})
	r := &targets.Runner{Set: set, Logger: log.Discard()}
	assert.ErrorContains(t, r.Run(context.Background(), set.All()), "target lcm: post run: lcm-gen missing")
}
