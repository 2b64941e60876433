package led

import (
	"sync"

	"github.com/Swind/go-minirtos/core"
)

// Output is the peripheral the tasks write to.
type Output interface {
	Off()
	Red()
	Green()
	Blue()
	Cyan()
	Yellow()
	Violet()
	White()
	Set(c Color)
}

// Sink displays LED changes. Show is called with the driver's lock held, in
// the order the changes were made.
type Sink interface {
	Show(c Color, lit Channel)
}

// Driver is the Output used by the demo: it keeps the current state and
// forwards every change to its sinks.
type Driver struct {
	mu      sync.Mutex
	sinks   []Sink
	color   Color
	changes uint64
}

// NewDriver creates a Driver, initially off.
func NewDriver(sinks ...Sink) *Driver {
	return &Driver{sinks: sinks, color: Off}
}

// Set lights the LED in c. Unknown colors turn it off.
func (d *Driver) Set(c Color) {
	if !c.Valid() {
		c = Off
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.color = c
	d.changes++
	lit := c.Channels()
	for _, s := range d.sinks {
		s.Show(c, lit)
	}
}

func (d *Driver) Off()    { d.Set(Off) }
func (d *Driver) Red()    { d.Set(Red) }
func (d *Driver) Green()  { d.Set(Green) }
func (d *Driver) Blue()   { d.Set(Blue) }
func (d *Driver) Cyan()   { d.Set(Cyan) }
func (d *Driver) Yellow() { d.Set(Yellow) }
func (d *Driver) Violet() { d.Set(Violet) }
func (d *Driver) White()  { d.Set(White) }

// Color returns the current state.
func (d *Driver) Color() Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.color
}

// Changes returns how many times the LED was set.
func (d *Driver) Changes() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changes
}

// =============================================================================
// Sinks
// =============================================================================

// LogSink traces LED changes on a kernel logger at debug level.
type LogSink struct {
	logger core.Logger
}

// NewLogSink creates a LogSink writing to logger.
func NewLogSink(logger core.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Show(c Color, lit Channel) {
	r, g, b := lit.PinLevels()
	s.logger.Debug("led", core.F("color", c), core.F("pins", pinString(r, g, b)))
}

func pinString(levels ...bool) string {
	out := make([]byte, len(levels))
	for i, high := range levels {
		out[i] = '0'
		if high {
			out[i] = '1'
		}
	}
	return string(out)
}

// Recorder keeps the sequence of colors shown, for tests and replays.
type Recorder struct {
	mu     sync.Mutex
	colors []Color
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Show(c Color, _ Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, c)
}

// Colors returns a copy of the colors shown so far.
func (r *Recorder) Colors() []Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Color, len(r.colors))
	copy(out, r.colors)
	return out
}

// Count returns how many times c was shown.
func (r *Recorder) Count(c Color) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.colors {
		if got == c {
			n++
		}
	}
	return n
}
