package core

import (
	"fmt"
	"reflect"
)

// Word is one slot of a task stack.
type Word uintptr

// Stack and frame geometry. These are fixed at build time.
const (
	// StackWords is the size of every task stack.
	StackWords = 200

	// FrameWords is the size of the register frame saved on a switch.
	FrameWords = 8

	// FramePCOffset and FramePSROffset locate the program counter and status
	// word of a fresh task, counted down from the end of its stack.
	FramePCOffset  = 2
	FramePSROffset = 1

	// DefaultPSR is the status word of a fresh task (thumb state bit set).
	DefaultPSR Word = 0x01000000
)

// Frame slots, counted from the word just above the saved stack pointer.
const (
	slotR0 = iota
	slotR1
	slotR2
	slotR3
	slotR12
	slotLR
	slotPC
	slotPSR
)

// Stack is the fixed-size memory a task executes on.
type Stack [StackWords]Word

// Frame is the register image stored at a saved stack pointer.
type Frame struct {
	R0, R1, R2, R3, R12, LR, PC, PSR Word
}

// initialStackPointer is the saved stack pointer of a task that never ran.
func initialStackPointer() int {
	return StackWords - 1 - FrameWords
}

// initialFrame is the synthetic frame a new task is dispatched from.
func initialFrame(entry TaskFunc) Frame {
	return Frame{PC: entryAddress(entry), PSR: DefaultPSR}
}

func entryAddress(entry TaskFunc) Word {
	if entry == nil {
		return 0
	}
	return Word(reflect.ValueOf(entry).Pointer())
}

func frameFits(sp int) bool {
	return sp >= -1 && sp+FrameWords < StackWords
}

func (s *Stack) writeFrame(sp int, f Frame) error {
	if !frameFits(sp) {
		return fmt.Errorf("%w: frame at %d", ErrStackOverflow, sp)
	}
	base := sp + 1
	s[base+slotR0] = f.R0
	s[base+slotR1] = f.R1
	s[base+slotR2] = f.R2
	s[base+slotR3] = f.R3
	s[base+slotR12] = f.R12
	s[base+slotLR] = f.LR
	s[base+slotPC] = f.PC
	s[base+slotPSR] = f.PSR
	return nil
}

func (s *Stack) readFrame(sp int) (Frame, error) {
	if !frameFits(sp) {
		return Frame{}, fmt.Errorf("%w: frame at %d", ErrCorruptFrame, sp)
	}
	base := sp + 1
	return Frame{
		R0:  s[base+slotR0],
		R1:  s[base+slotR1],
		R2:  s[base+slotR2],
		R3:  s[base+slotR3],
		R12: s[base+slotR12],
		LR:  s[base+slotLR],
		PC:  s[base+slotPC],
		PSR: s[base+slotPSR],
	}, nil
}
