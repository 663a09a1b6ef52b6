package cog

import (
	"fmt"
	"os"
)

// Interpreted is a cog running the SPIN bytecode interpreter. It owns
// its program counter, the four frame registers, the side call stack
// and the cog register file; every memory access goes through the hub
// handle supplied at construction.
type Interpreted struct {
	hub Hub

	pc            uint32
	stackFrame    uint32
	localFrame    uint32
	objectFrame   uint32
	variableFrame uint32

	// callStack interleaves return-type masks and saved-PC slot
	// addresses; see the frame-prep and call opcodes.
	callStack []uint32

	state      RunState
	stateCount int

	// Wait scratch, latched by the wait opcodes.
	targetValue uint32
	maskValue   uint32
	port        uint32
	pixelsValue uint32
	colorsValue uint32

	interpreterFlag bool
	frameFlag       FrameFlag

	regs [CogMemorySize]uint32

	breakpoint int64
	instCount  uint64
	logf       func(format string, args ...interface{})
}

// Option configures an Interpreted cog at construction.
type Option func(*Interpreted)

// WithLogger routes diagnostics (undefined opcodes and the like) to the
// given printf-style callback instead of stderr.
func WithLogger(logf func(format string, args ...interface{})) Option {
	return func(c *Interpreted) {
		c.logf = logf
	}
}

// WithBreakpoint sets the breakpoint cursor. DoInstruction reports true
// whenever the PC lands on it.
func WithBreakpoint(addr uint32) Option {
	return func(c *Interpreted) {
		c.breakpoint = int64(addr)
	}
}

// WithPAR seeds the boot parameter register. The boot sequence masks it
// and treats it as the init-block pointer.
func WithPAR(addr uint32) Option {
	return func(c *Interpreted) {
		c.regs[RegPAR] = addr
	}
}

// NewInterpreted creates a cog attached to the given hub, ready to boot
// interpreted on its first tick.
func NewInterpreted(hub Hub, opts ...Option) *Interpreted {
	c := &Interpreted{
		hub:        hub,
		state:      StateBootInterpreter,
		breakpoint: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logf == nil {
		c.logf = func(format string, args ...interface{}) {
			_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return c
}

// PC returns the current program counter.
func (c *Interpreted) PC() uint32 { return c.pc }

// State returns the current run state.
func (c *Interpreted) State() RunState { return c.state }

// StackFrame returns the address of the next free stack slot.
func (c *Interpreted) StackFrame() uint32 { return c.stackFrame }

// LocalFrame returns the local-frame base address.
func (c *Interpreted) LocalFrame() uint32 { return c.localFrame }

// ObjectFrame returns the object-frame base address.
func (c *Interpreted) ObjectFrame() uint32 { return c.objectFrame }

// VariableFrame returns the variable-frame base address.
func (c *Interpreted) VariableFrame() uint32 { return c.variableFrame }

// FrameFlag returns the video frame accounting flag.
func (c *Interpreted) FrameFlag() FrameFlag { return c.frameFlag }

// InstructionCount returns the number of opcodes executed since boot.
func (c *Interpreted) InstructionCount() uint64 { return c.instCount }

// CallDepth returns the number of entries on the side call stack.
func (c *Interpreted) CallDepth() int { return len(c.callStack) }

// SetFrames places the four frame registers directly. Tests and hosts
// use it to run bytecode fragments without a boot image.
func (c *Interpreted) SetFrames(object, variable, local, stack uint32) {
	c.objectFrame = object
	c.variableFrame = variable
	c.localFrame = local
	c.stackFrame = stack
}

// SetPC places the program counter directly.
func (c *Interpreted) SetPC(addr uint32) { c.pc = addr & MaxHubAddress }

// SetState forces a run state. The hub uses it for out-of-band control.
func (c *Interpreted) SetState(s RunState) { c.state = s }

// Stopped reports whether the cog is dormant.
func (c *Interpreted) Stopped() bool { return c.state == StateStopped }

// DoInstruction advances the cog by one hub tick: either one pacing
// tick of the current state or, in EXEC_INTERPRETER, one fetched and
// executed opcode. It reports whether the PC sits on the breakpoint
// cursor afterward.
func (c *Interpreted) DoInstruction() bool {
	switch c.state {
	case StateBootInterpreter:
		c.boot()

	case StateWaitInterpreter:
		c.stateCount--
		if c.stateCount <= 0 {
			c.state = StateExecInterpreter
		}

	case StateExecInterpreter:
		c.stepInstruction()
		// A wait opcode may already have moved us to a wait state.
		if c.state == StateExecInterpreter {
			c.state = StateWaitInterpreter
			c.stateCount = interpreterWaitTicks
		}

	case StateWaitPEQ:
		if c.pins()&c.maskValue == c.targetValue {
			c.state = StateExecInterpreter
		}

	case StateWaitPNE:
		if c.pins()&c.maskValue != c.targetValue {
			c.state = StateExecInterpreter
		}

	case StateWaitCNT:
		if uint32(c.hub.Counter()) == c.targetValue {
			c.state = StateExecInterpreter
		}

	default:
		// StateStopped and StateWaitVID leave only through external
		// calls (hub Stop, GetVideoData).
	}

	return c.breakpoint >= 0 && uint32(c.breakpoint) == c.pc
}

// GetVideoData delivers a video frame slot. A cog waiting in WAIT_VID
// consumes its latched colors/pixels and resumes execution; any other
// state records a miss and yields zeros.
func (c *Interpreted) GetVideoData() (colors, pixels uint32) {
	if c.state == StateWaitVID {
		c.state = StateExecInterpreter
		c.frameFlag = FrameHit
		return c.colorsValue, c.pixelsValue
	}
	c.frameFlag = FrameMiss
	return 0, 0
}

// boot reads the init block pointed to by PAR and prepares the first
// frame. The block holds four words below the pointer: object base,
// variable base, initial PC and the initial stack top plus 4.
func (c *Interpreted) boot() {
	c.state = StateWaitInterpreter
	c.stateCount = bootWaitTicks

	initFrame := c.regs[RegPAR] & MaxHubAddress
	c.regs[RegINITCOGID] = initFrame - 4

	c.objectFrame = uint32(c.hub.DirectReadWord(initFrame - 8))
	c.variableFrame = uint32(c.hub.DirectReadWord(initFrame - 6))
	c.pc = uint32(c.hub.DirectReadWord(initFrame - 4))
	c.stackFrame = uint32(c.hub.DirectReadWord(initFrame-2)) - 4
	c.localFrame = initFrame - 4

	// Abort sentinel and cleared return slot, as the ROM leaves them.
	c.hub.DirectWriteLong(initFrame-8, 0xFFFFFFFF)
	c.hub.DirectWriteLong(initFrame-4, 0)
}

// stepInstruction fetches one opcode byte and dispatches on its family:
// 0xE0-0xFF math, 0x80-0xDF masked memory, 0x40-0x7F fast VAR/LOC
// access, 0x00-0x3F specials.
func (c *Interpreted) stepInstruction() {
	op := c.readByteOperand()
	c.instCount++

	switch {
	case op >= 0xE0:
		c.PushLong(c.baseMathOp(op-0xE0, true, c.PopLong()))
	case op >= 0x80:
		c.stepMaskedMemoryOp(op)
	case op >= 0x40:
		c.stepImplicitMemoryOp(op)
	default:
		c.stepSpecialOp(op)
	}
}

// pins reads the pin bus selected by the wait scratch port.
func (c *Interpreted) pins() uint32 {
	if c.port != 0 {
		return c.hub.INB()
	}
	return c.hub.INA()
}

// stop parks the cog and asks the hub to clear its slot.
func (c *Interpreted) stop() {
	id := c.hub.CogID(c)
	c.state = StateStopped
	c.hub.Stop(id)
}
