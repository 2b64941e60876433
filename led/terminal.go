package led

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

const (
	lampRune  = '█'
	lampWidth = 4
)

// TerminalPanel draws the LED as a colored lamp in a terminal:
//
//	████ red     R0 G1 B1
//	clock 120  task 3
type TerminalPanel struct {
	mu      sync.Mutex
	screen  tcell.Screen
	palette *Palette
	status  string
}

// NewTerminalPanel draws on an initialized screen.
func NewTerminalPanel(screen tcell.Screen, palette *Palette) *TerminalPanel {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &TerminalPanel{screen: screen, palette: palette}
}

// OpenTerminalPanel takes over the controlling terminal.
func OpenTerminalPanel(palette *Palette) (*TerminalPanel, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.Clear()
	return NewTerminalPanel(screen, palette), nil
}

// WatchQuit calls quit when q, Esc or Ctrl-C is pressed. It returns once the
// panel is closed.
func (p *TerminalPanel) WatchQuit(quit func()) {
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				quit()
			}
		case *tcell.EventResize:
			p.mu.Lock()
			p.screen.Sync()
			p.mu.Unlock()
		}
	}
}

// Close gives the terminal back.
func (p *TerminalPanel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screen.Fini()
}

// Show implements Sink.
func (p *TerminalPanel) Show(c Color, lit Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, g, b := p.palette.RGB255(c)
	lamp := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	for x := 0; x < lampWidth; x++ {
		p.screen.SetContent(x, 0, lampRune, nil, lamp)
	}

	red, green, blue := lit.PinLevels()
	label := fmt.Sprintf(" %-7s R%s G%s B%s", c, pinString(red), pinString(green), pinString(blue))
	p.drawText(lampWidth, 0, label, tcell.StyleDefault)
	p.drawText(0, 1, p.status, tcell.StyleDefault.Dim(true))
	p.screen.Show()
}

// SetStatus sets the line shown under the lamp from the next Show on.
func (p *TerminalPanel) SetStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

func (p *TerminalPanel) drawText(x, y int, text string, style tcell.Style) {
	width, _ := p.screen.Size()
	for _, r := range text {
		if x >= width {
			return
		}
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < width; x++ {
		p.screen.SetContent(x, y, ' ', nil, style)
	}
}
