package minirtos_test

import (
	"context"
	"fmt"

	minirtos "github.com/Swind/go-minirtos"
	"github.com/Swind/go-minirtos/core"
)

// ExampleCreateTask demonstrates priority scheduling with only one import.
func ExampleCreateTask() {
	ticks := minirtos.NewManualTickSource()
	minirtos.InitGlobalKernel(&minirtos.KernelConfig{
		Logger:     minirtos.NewNoOpLogger(),
		TickSource: ticks,
	})
	defer minirtos.ShutdownGlobalKernel()

	done := make(chan struct{})

	// Low priority: runs once the high priority task sleeps
	minirtos.CreateTask(func(ctx context.Context, arg any) {
		fmt.Println("low")
		close(done)
		for {
			minirtos.Delay(ctx, 1000)
		}
	}, 1, true)

	// High priority: runs first
	minirtos.CreateTask(func(ctx context.Context, arg any) {
		for {
			fmt.Println("high")
			minirtos.Delay(ctx, 1000)
		}
	}, 2, true)

	minirtos.StartScheduler()
	ticks.Tick()
	<-done

	// Output:
	// high
	// low
}

// ExampleKernel_Stats shows the registry after the first scheduling decision.
func ExampleKernel_Stats() {
	ticks := minirtos.NewManualTickSource()
	k := minirtos.NewKernelWithConfig(&minirtos.KernelConfig{
		Logger:     minirtos.NewNoOpLogger(),
		TickSource: ticks,
	})
	defer k.Shutdown()

	parked := func(ctx context.Context, arg any) {
		for {
			minirtos.Delay(ctx, 1000)
		}
	}
	k.CreateTaskWithOptions(parked, core.TaskOptions{Name: "sensor", Priority: 2})
	k.CreateTaskWithOptions(parked, core.TaskOptions{Name: "logger", Priority: 1, Autostart: true})
	k.StartScheduler()

	for _, ts := range k.Stats().Tasks {
		fmt.Printf("%d %-6s %-7s priority %d\n", ts.Handle, ts.Name, ts.Status, ts.Priority)
	}

	// Output:
	// 0 sensor WAITING priority 2
	// 1 logger READY   priority 1
	// 2 idle   READY   priority 0
}
