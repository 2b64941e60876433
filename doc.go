// Package minirtos is a minimal preemptive priority task kernel.
//
// A fixed set of tasks (seven application tasks plus an idle task) share one
// processor. A periodic tick counts down task delays and selects the highest
// priority ready task; the switch itself is deferred and completed at the
// next safe point, the way a pended low-priority interrupt would on a
// microcontroller. Each task runs on its own goroutine, and exactly one of
// them holds the processor at any time.
//
// # Quick Start
//
// Initialize the global kernel, create tasks, then start the scheduler:
//
//	minirtos.InitGlobalKernel(nil)
//	defer minirtos.ShutdownGlobalKernel()
//
//	minirtos.CreateTask(func(ctx context.Context, arg any) {
//		for {
//			// work
//			minirtos.Delay(ctx, 10) // sleep for 10 ticks
//		}
//	}, 3, true)
//
//	minirtos.StartScheduler()
//
// # Key Concepts
//
// Task: a TaskFunc that loops forever. It gives up the processor with Delay;
// a task that never delays keeps lower priorities from running at all.
//
// Priority: higher numbers win. Among equal priorities the task created last
// wins. Priority 0 belongs to the idle task, which runs when nothing else is
// ready.
//
// Tick: the kernel clock, one per TickPeriod. Delays are counted in ticks.
//
// Safe points: a switch chosen by a tick takes effect when the running task
// next calls into the kernel (Delay, Preempt or WaitForInterrupt).
//
// # Packages
//
// core holds the kernel. led and demo implement the blinking-LED
// application; script runs task bodies written in Lua; observability/prometheus
// exports kernel metrics.
package minirtos
