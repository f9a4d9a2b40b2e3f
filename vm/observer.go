package vm

import (
	"github.com/rs/zerolog"

	"github.com/ribbon-lang/ribbon/op"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	// Use for: detailed tracing, instruction-level debugging.
	StepAll StepMode = iota

	// StepNone never calls OnStep.
	StepNone

	// StepSampled calls OnStep every N instructions.
	// Use for: statistical profiling.
	StepSampled

	// StepOnLine calls OnStep when the source line changes.
	// Use for: coverage tools, line-level debugging.
	StepOnLine
)

// ObserverConfig specifies what events an observer wants to receive.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Values <= 0 are treated as 1.
	SampleInterval int
}

// NewObserverConfig creates a config with safe defaults.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
	}
}

// NormalizeConfig validates and clamps config values.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer is an interface for observing VM execution.
//
// Observer methods are called synchronously during VM execution.
// Implementations should be fast to avoid impacting performance.
type Observer interface {
	// Config returns the observer's configuration.
	// Called once when the observer is attached to the VM.
	Config() ObserverConfig

	// OnStep is called before an instruction executes, based on the
	// StepMode in the observer's config. Returns false to halt execution.
	OnStep(event StepEvent) bool
}

// StepEvent contains information about a single instruction step.
type StepEvent struct {
	// IP is the instruction pointer (index into the program).
	IP int

	// Opcode is the operation about to execute.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// Operand is the instruction operand (tape size or branch distance).
	Operand int

	// Line is the 1-based source line, or 0 when unknown.
	Line int

	// Cursor is the cursor position before the instruction executes.
	Cursor int

	// Cell is the value under the cursor, or 0 before the tape exists.
	Cell byte
}

// NoOpObserver is an Observer implementation that does nothing.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}

// LogObserver writes every step to a logger at trace level.
type LogObserver struct {
	Logger zerolog.Logger
	Mode   StepMode
}

func (o LogObserver) Config() ObserverConfig {
	return NewObserverConfig(o.Mode)
}

func (o LogObserver) OnStep(event StepEvent) bool {
	o.Logger.Trace().
		Int("ip", event.IP).
		Str("op", event.OpcodeName).
		Int("operand", event.Operand).
		Int("line", event.Line).
		Int("cursor", event.Cursor).
		Uint8("cell", event.Cell).
		Msg("step")
	return true
}
