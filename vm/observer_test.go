package vm

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	config    ObserverConfig
	steps     int
	calls     int
	returns   int
	maxDepth  int
	stopAfter int // halt after this many steps, if positive
}

func (o *countingObserver) Config() ObserverConfig { return o.config }

func (o *countingObserver) OnStep(e StepEvent) bool {
	o.steps++
	if e.FrameDepth > o.maxDepth {
		o.maxDepth = e.FrameDepth
	}
	return o.stopAfter <= 0 || o.steps < o.stopAfter
}

func (o *countingObserver) OnCall(e CallEvent) bool {
	o.calls++
	return true
}

func (o *countingObserver) OnReturn(e ReturnEvent) bool {
	o.returns++
	return true
}

func TestObserverCallEvents(t *testing.T) {
	obs := &countingObserver{config: ObserverConfig{Calls: true}}
	src := `
	func h() {
		return 1
	}
	h()`
	code, env := compileSource(t, src, nil)
	result, err := Run(context.Background(), code, WithGlobals(env), WithObserver(obs))
	require.NoError(t, err)
	require.Equal(t, "1", result.Inspect())
	require.Equal(t, 1, obs.calls)
	require.Equal(t, 1, obs.returns)
}

// A comprehension runs inline in the frame that contains it, so a call
// observer sees nothing.
func TestObserverSilentForComprehension(t *testing.T) {
	obs := &countingObserver{config: ObserverConfig{Calls: true}}
	code, env := compileSource(t, "[x * x for x in [1, 2, 3]]", nil)
	result, err := Run(context.Background(), code, WithGlobals(env), WithObserver(obs))
	require.NoError(t, err)
	require.Equal(t, "[1, 4, 9]", result.Inspect())
	require.Equal(t, 0, obs.calls)
	require.Equal(t, 0, obs.returns)
}

func TestObserverComprehensionFrameDepth(t *testing.T) {
	obs := &countingObserver{config: ObserverConfig{Steps: true}}
	code, env := compileSource(t, "[x + 1 for x in [1, 2, 3] if x != 2]", nil)
	result, err := Run(context.Background(), code, WithGlobals(env), WithObserver(obs))
	require.NoError(t, err)
	require.Equal(t, "[2, 4]", result.Inspect())
	require.Greater(t, obs.steps, 0)
	require.Equal(t, 0, obs.maxDepth)
}

func TestObserverHaltsExecution(t *testing.T) {
	obs := &countingObserver{config: ObserverConfig{Steps: true}, stopAfter: 5}
	src := `
	let total = 0
	for i in range(100000) {
		total = total + i
	}
	total`
	code, env := compileSource(t, src, nil)
	_, err := Run(context.Background(), code, WithGlobals(env), WithObserver(obs))
	require.ErrorIs(t, err, ErrHalted)
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	obs := NewLoggingObserver(logger, ObserverConfig{Calls: true})
	src := `
	func double(n) {
		return n * 2
	}
	double(21)`
	code, env := compileSource(t, src, nil)
	result, err := Run(context.Background(), code, WithGlobals(env), WithObserver(obs))
	require.NoError(t, err)
	require.Equal(t, "42", result.Inspect())
	logged := buf.String()
	require.Contains(t, logged, `"message":"call"`)
	require.Contains(t, logged, `"message":"return"`)
	require.Contains(t, logged, `"function":"double"`)
}
