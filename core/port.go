package core

import (
	"fmt"
	"reflect"
)

// ContextPort is the only per-target piece of the kernel: it moves register
// frames between the live processor and task stacks. The kernel calls it with
// its lock held, so implementations need no synchronization of their own.
type ContextPort interface {
	// SaveContext pushes the live register file onto stack and returns the stack
	// pointer sampled at the save point of origin's call chain. The caller
	// applies the origin's correction to reach the frame boundary.
	SaveContext(stack *Stack, origin Origin) (int, error)

	// RestoreContext loads the frame saved at sp onto the live processor.
	RestoreContext(stack *Stack, sp int) (Frame, error)
}

// Where the sampled frame pointer sits relative to the frame boundary on the
// simulated processor. The kernel corrections in switch.go undo these.
const (
	simYieldFramePointerLead = 10 // above the boundary
	simTimerFramePointerLag  = 11 // below the boundary
)

// SimulatedCPU is the portable ContextPort used on hosted targets. It keeps a
// live register file and stack pointer for the context that owns the
// processor; the goroutine of each task fiber holds the real execution state.
type SimulatedCPU struct {
	regs Frame
	sp   int
}

// NewSimulatedCPU creates a SimulatedCPU in its reset state.
func NewSimulatedCPU() *SimulatedCPU {
	return &SimulatedCPU{sp: StackWords}
}

// SaveContext stores the live registers with a resume PC, so the frame
// restores into the fiber's park point.
func (c *SimulatedCPU) SaveContext(stack *Stack, origin Origin) (int, error) {
	boundary := c.sp - FrameWords
	frame := c.regs
	frame.PC = resumeAddress()
	frame.PSR |= DefaultPSR
	if err := stack.writeFrame(boundary, frame); err != nil {
		return 0, err
	}

	switch origin {
	case OriginYield:
		return boundary + simYieldFramePointerLead, nil
	case OriginTimer:
		return boundary - simTimerFramePointerLag, nil
	default:
		return 0, fmt.Errorf("minirtos: unknown switch origin %d", origin)
	}
}

// RestoreContext pops the frame at sp and makes it the live register file.
func (c *SimulatedCPU) RestoreContext(stack *Stack, sp int) (Frame, error) {
	frame, err := stack.readFrame(sp)
	if err != nil {
		return Frame{}, err
	}
	if frame.PSR&DefaultPSR == 0 {
		return Frame{}, fmt.Errorf("%w: status word %#x at %d", ErrCorruptFrame, frame.PSR, sp)
	}
	c.regs = frame
	c.sp = sp + FrameWords
	return frame, nil
}

// StackPointer returns the live stack pointer.
func (c *SimulatedCPU) StackPointer() int {
	return c.sp
}

// parkPoint marks where a saved fiber resumes. Only its address is used.
func parkPoint() {}

func resumeAddress() Word {
	return Word(reflect.ValueOf(parkPoint).Pointer())
}
