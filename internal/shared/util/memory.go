package util

import (
	"fmt"
	"runtime"
)

// RuntimeStats is the slice of runtime.MemStats the health endpoint reports
// while watch mode keeps rebuilding the graph.
type RuntimeStats struct {
	HeapMB     uint64
	Goroutines int
	GCCycles   uint32
}

func ReadRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		HeapMB:     m.Alloc / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
		GCCycles:   m.NumGC,
	}
}

func (s RuntimeStats) String() string {
	return fmt.Sprintf("%d MB, %d goroutines, %d gc", s.HeapMB, s.Goroutines, s.GCCycles)
}
