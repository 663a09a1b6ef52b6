// Package hub provides the shared substrate of the eight-cog system:
// main memory, the system counter, pin buses, semaphore locks, the
// clock register and cog allocation. The hub is the serialization
// point — every cross-cog effect passes through it, one tick at a time.
package hub

import (
	"fmt"
	"os"

	"github.com/Sh1nyAnd3o3/gear-emu/cog"
)

// CogCount is the number of cog slots in the system.
const CogCount = 8

// Hub implements the cog.Hub interface and owns the cog table.
type Hub struct {
	mem [TotalSize]byte

	counter int64
	ina     uint32
	inb     uint32

	clockMode uint8
	clockFreq uint32

	lockAlloc uint8
	lockState uint8

	cogs [CogCount]*cog.Interpreted

	logf func(format string, args ...interface{})
}

// Option configures a Hub at construction.
type Option func(*Hub)

// WithLogger routes hub diagnostics to the given printf-style callback
// instead of stderr. New cogs started through COGINIT inherit it.
func WithLogger(logf func(format string, args ...interface{})) Option {
	return func(h *Hub) {
		h.logf = logf
	}
}

// New creates an empty hub with no running cogs.
func New(opts ...Option) *Hub {
	h := &Hub{}
	for _, opt := range opts {
		opt(h)
	}
	if h.logf == nil {
		h.logf = func(format string, args ...interface{}) {
			_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return h
}

// Counter returns the monotonically incrementing system tick.
func (h *Hub) Counter() int64 { return h.counter }

// INA returns pin bus A.
func (h *Hub) INA() uint32 { return h.ina }

// INB returns pin bus B.
func (h *Hub) INB() uint32 { return h.inb }

// SetINA drives pin bus A. Hosts and tests use it; cogs only read.
func (h *Hub) SetINA(v uint32) { h.ina = v }

// SetINB drives pin bus B.
func (h *Hub) SetINB(v uint32) { h.inb = v }

// ClockMode returns the latched clock mode byte.
func (h *Hub) ClockMode() uint8 { return h.clockMode }

// SetClockMode latches a new clock mode byte.
func (h *Hub) SetClockMode(mode uint8) { h.clockMode = mode }

// Cog returns the cog in the given slot, or nil.
func (h *Hub) Cog(id uint32) *cog.Interpreted {
	if id >= CogCount {
		return nil
	}
	return h.cogs[id]
}

// Idle reports whether every cog slot is empty.
func (h *Hub) Idle() bool {
	for _, c := range h.cogs {
		if c != nil {
			return false
		}
	}
	return true
}

// CogID resolves a caller to its slot number, or NoFreeLock-style
// all-ones when the caller is not installed.
func (h *Hub) CogID(caller *cog.Interpreted) uint32 {
	for i, c := range h.cogs {
		if c == caller {
			return uint32(i)
		}
	}
	return 0xFFFFFFFF
}

// Stop halts and removes the cog in the given slot.
func (h *Hub) Stop(id uint32) {
	if id >= CogCount || h.cogs[id] == nil {
		return
	}
	h.cogs[id].SetState(cog.StateStopped)
	h.cogs[id] = nil
}

// Step advances the chip one tick: the counter first, then every live
// cog in slot order. It reports whether any cog reached its breakpoint
// cursor.
func (h *Hub) Step() bool {
	h.counter++
	hit := false
	for _, c := range h.cogs {
		if c != nil && c.DoInstruction() {
			hit = true
		}
	}
	return hit
}

// RunTicks advances the chip up to n ticks, stopping early when every
// cog slot is empty or a breakpoint is reached. It returns the number
// of ticks consumed.
func (h *Hub) RunTicks(n uint64) uint64 {
	var i uint64
	for ; i < n; i++ {
		if h.Idle() {
			return i
		}
		if h.Step() {
			return i + 1
		}
	}
	return i
}

// GetVideoData delivers a video frame slot to the given cog, returning
// its latched colors and pixels when it was waiting.
func (h *Hub) GetVideoData(id uint32) (colors, pixels uint32) {
	if id >= CogCount || h.cogs[id] == nil {
		return 0, 0
	}
	return h.cogs[id].GetVideoData()
}

// NewLock allocates the next free semaphore, or returns cog.NoFreeLock
// when all eight are checked out.
func (h *Hub) NewLock() uint32 {
	for i := uint32(0); i < 8; i++ {
		if h.lockAlloc&(1<<i) == 0 {
			h.lockAlloc |= 1 << i
			return i
		}
	}
	return cog.NoFreeLock
}

// LockReturn releases a semaphore back to the free pool.
func (h *Hub) LockReturn(id uint32) {
	h.lockAlloc &^= 1 << (id & 0x7)
}

// LockSet sets or clears a semaphore and returns its previous state.
func (h *Hub) LockSet(id uint32, set bool) bool {
	bit := uint8(1) << (id & 0x7)
	previous := h.lockState&bit != 0
	if set {
		h.lockState |= bit
	} else {
		h.lockState &^= bit
	}
	return previous
}

// HubOp performs a hub operation on behalf of a cog. COGINIT decodes
// the assembled opcode and starts a cog; the remaining codes mirror the
// direct accessors.
func (h *Hub) HubOp(caller *cog.Interpreted, op uint32, operand uint32, carry *bool, zero *bool) uint32 {
	switch op {
	case cog.HubOpCogInit:
		return h.cogInit(operand, carry, zero)
	case cog.HubOpCogID:
		return h.CogID(caller)
	case cog.HubOpCogStop:
		h.Stop(operand & 0x7)
		return operand & 0x7
	case cog.HubOpClkSet:
		h.SetClockMode(uint8(operand))
		return 0
	case cog.HubOpLockNew:
		id := h.NewLock()
		*carry = id == cog.NoFreeLock
		return id
	case cog.HubOpLockRet:
		h.LockReturn(operand)
		return operand & 0x7
	case cog.HubOpLockSet:
		*carry = h.LockSet(operand, true)
		return operand & 0x7
	case cog.HubOpLockClr:
		*carry = h.LockSet(operand, false)
		return operand & 0x7
	}
	h.logf("hub: unknown hub operation %d", op)
	return 0
}

// cogInit decodes a COGINIT opcode: bits 31:18 carry the boot
// parameter, 17:4 the entry point, bit 3 requests the first free slot
// and bits 2:0 name an explicit one. Carry out signals no free cog.
func (h *Hub) cogInit(operand uint32, carry *bool, zero *bool) uint32 {
	id := operand & 0x7
	if operand&0x8 != 0 {
		free := h.firstFree()
		if free < 0 {
			*carry = true
			return 0xFFFFFFFF
		}
		id = uint32(free)
	}

	param := (operand >> 16) & 0xFFFC
	entry := (operand >> 2) & 0xFFFC

	if entry != cog.InterpreterEntry {
		// Only the interpreted variant exists in this build.
		h.logf("hub: native COGINIT for entry %#04x ignored", entry)
		*carry = true
		return 0xFFFFFFFF
	}

	h.cogs[id] = cog.NewInterpreted(h,
		cog.WithPAR(param),
		cog.WithLogger(h.logf),
	)
	*carry = false
	*zero = id == 0
	return id
}

func (h *Hub) firstFree() int {
	for i, c := range h.cogs {
		if c == nil {
			return i
		}
	}
	return -1
}
