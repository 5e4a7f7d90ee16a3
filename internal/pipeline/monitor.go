package pipeline

import (
	"runtime"
)

// memorySnapshot is the part of runtime.MemStats used for per-file reports.
type memorySnapshot struct {
	HeapAlloc uint64
	Sys       uint64
	NumGC     uint32
}

func readMemory() memorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return memorySnapshot{HeapAlloc: m.HeapAlloc, Sys: m.Sys, NumGC: m.NumGC}
}

// memoryUsedMB is the heap growth between two snapshots in MiB. It can be
// negative when a collection ran in between.
func memoryUsedMB(before, after memorySnapshot) float64 {
	return (float64(after.HeapAlloc) - float64(before.HeapAlloc)) / (1 << 20)
}
