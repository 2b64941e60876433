package minirtos

import (
	"sync"

	"github.com/Swind/go-minirtos/core"
)

// =============================================================================
// Global Kernel Helper (Singleton)
// =============================================================================

var (
	globalKernel *core.Kernel
	globalMu     sync.Mutex
)

// InitGlobalKernel creates the global kernel. A nil config selects the
// defaults. Later calls are no-ops until ShutdownGlobalKernel.
func InitGlobalKernel(config *core.KernelConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalKernel != nil {
		return // Already initialized
	}

	if config == nil {
		config = core.DefaultKernelConfig()
	}
	globalKernel = core.NewKernelWithConfig(config)
}

// GetGlobalKernel returns the global kernel instance.
// It panics if InitGlobalKernel has not been called.
func GetGlobalKernel() *core.Kernel {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalKernel == nil {
		panic("GlobalKernel not initialized. Call InitGlobalKernel() first.")
	}
	return globalKernel
}

// ShutdownGlobalKernel stops the global kernel and forgets it.
func ShutdownGlobalKernel() {
	globalMu.Lock()
	k := globalKernel
	globalKernel = nil
	globalMu.Unlock()

	if k != nil {
		k.Shutdown()
	}
}

// CreateTask adds a task to the global kernel.
func CreateTask(entry TaskFunc, priority uint32, autostart bool) (TaskHandle, error) {
	return GetGlobalKernel().CreateTask(entry, priority, autostart)
}

// CreateTaskWithArg adds a task with an argument to the global kernel.
func CreateTaskWithArg(entry TaskFunc, arg any, priority uint32, autostart bool) (TaskHandle, error) {
	return GetGlobalKernel().CreateTaskWithArg(entry, arg, priority, autostart)
}

// StartScheduler starts the global kernel.
func StartScheduler() error {
	return GetGlobalKernel().StartScheduler()
}
