package vm

import (
	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/object"
	"github.com/quill-lang/quill/op"
	"github.com/rs/zerolog"
)

// ObserverConfig declares which events an observer wants to receive.
type ObserverConfig struct {
	// Steps requests an event before each instruction executes
	Steps bool

	// Calls requests events for function calls and returns
	Calls bool
}

// StepEvent describes one instruction about to execute.
type StepEvent struct {
	IP         int
	Opcode     op.Code
	FrameDepth int
	StackSize  int
	Location   errz.SourceLocation
}

// CallEvent describes a function call entering a new frame. Comprehensions
// run inline in the frame that contains them and never produce one.
type CallEvent struct {
	Function   *object.Closure
	Args       []object.Object
	FrameDepth int
}

// ReturnEvent describes a function returning from its frame.
type ReturnEvent struct {
	Function   *object.Closure
	Value      object.Object
	FrameDepth int
}

// Observer receives execution events from a running machine. Each callback
// returns true to continue execution. Returning false halts the machine,
// which then returns ErrHalted from Run.
type Observer interface {
	// Config reports which events the observer wants.
	Config() ObserverConfig

	// OnStep is called before each instruction when Steps is enabled.
	OnStep(e StepEvent) bool

	// OnCall is called when a function call begins when Calls is enabled.
	OnCall(e CallEvent) bool

	// OnReturn is called when a function returns when Calls is enabled.
	OnReturn(e ReturnEvent) bool
}

// LoggingObserver logs execution events for debugging and tracing.
type LoggingObserver struct {
	logger zerolog.Logger
	config ObserverConfig
}

// NewLoggingObserver creates an observer that logs the configured events at
// trace level.
func NewLoggingObserver(logger zerolog.Logger, config ObserverConfig) *LoggingObserver {
	return &LoggingObserver{logger: logger, config: config}
}

func (o *LoggingObserver) Config() ObserverConfig {
	return o.config
}

func (o *LoggingObserver) OnStep(e StepEvent) bool {
	o.logger.Trace().
		Int("ip", e.IP).
		Str("opcode", op.GetInfo(e.Opcode).Name).
		Int("frame_depth", e.FrameDepth).
		Int("stack_size", e.StackSize).
		Msg("step")
	return true
}

func (o *LoggingObserver) OnCall(e CallEvent) bool {
	o.logger.Trace().
		Str("function", e.Function.Name()).
		Int("args", len(e.Args)).
		Int("frame_depth", e.FrameDepth).
		Msg("call")
	return true
}

func (o *LoggingObserver) OnReturn(e ReturnEvent) bool {
	event := o.logger.Trace().
		Str("function", e.Function.Name()).
		Int("frame_depth", e.FrameDepth)
	if e.Value != nil {
		event = event.Str("value", e.Value.Inspect())
	}
	event.Msg("return")
	return true
}
