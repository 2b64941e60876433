// Package demo is the blinking-LED application: seven tasks of mixed
// priorities share one RGB LED, each lighting its own color and then
// sleeping for a color-dependent number of ticks. When every task sleeps,
// the idle task turns the LED off.
package demo

import (
	"context"
	"fmt"

	"github.com/Swind/go-minirtos/core"
	"github.com/Swind/go-minirtos/led"
)

// BlinkPriorities are the priorities of the blinking tasks, in creation
// order. Task i lights led.Colors[i].
var BlinkPriorities = []uint32{3, 2, 4, 5, 2, 1, 4}

// BlinkDelay is how long a task sleeps after lighting c.
func BlinkDelay(c led.Color) uint32 {
	return uint32(c+1) * 5
}

// TaskCreator is the part of the kernel Install needs.
type TaskCreator interface {
	CreateTaskWithOptions(entry core.TaskFunc, opts core.TaskOptions) (core.TaskHandle, error)
}

// Install creates the blinking tasks on k, all autostarted.
func Install(k TaskCreator, out led.Output, logger core.Logger) ([]core.TaskHandle, error) {
	return InstallTasks(k, BlinkingLED(out, logger))
}

// InstallTasks creates one autostarted task per entry of BlinkPriorities, all
// running body. Task i is named after led.Colors[i] and gets it as argument.
func InstallTasks(k TaskCreator, body core.TaskFunc) ([]core.TaskHandle, error) {
	handles := make([]core.TaskHandle, 0, len(BlinkPriorities))
	for i, priority := range BlinkPriorities {
		color := led.Colors[i]
		h, err := k.CreateTaskWithOptions(body, core.TaskOptions{
			Name:      "led-" + color.String(),
			Arg:       color,
			Priority:  priority,
			Autostart: true,
		})
		if err != nil {
			return handles, fmt.Errorf("demo: create %s task: %w", color, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// BlinkingLED returns the body of a blinking task. The task lights the color
// given as its argument; without one it uses the color matching its handle.
func BlinkingLED(out led.Output, logger core.Logger) core.TaskFunc {
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	return func(ctx context.Context, arg any) {
		color, ok := arg.(led.Color)
		if !ok {
			color = led.Color(core.CurrentTask(ctx))
		}
		if !color.Valid() {
			color = led.Off
		}

		for {
			out.Set(color)
			logger.Debug("blink", core.F("task", core.CurrentTask(ctx)), core.F("color", color))
			core.Delay(ctx, BlinkDelay(color))
		}
	}
}

// IdleHook turns the LED off; install it as the kernel's idle hook.
func IdleHook(out led.Output) func() {
	return out.Off
}
