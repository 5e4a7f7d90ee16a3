package batch

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// DynamicBatchSize is min(max(1, availableMB/perFileMB), max(1, cpus-1)).
func DynamicBatchSize(availableMB, perFileMB, cpus int) int {
	if perFileMB <= 0 {
		perFileMB = 200
	}
	byMemory := max(1, availableMB/perFileMB)
	byCPU := max(1, cpus-1)
	return min(byMemory, byCPU)
}

// batchSize resolves the configured or dynamic batch size.
func (c Config) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	avail, ok := AvailableMemoryMB()
	if !ok {
		return max(1, runtime.NumCPU()-1)
	}
	return DynamicBatchSize(avail, c.MemoryPerFileMB, runtime.NumCPU())
}

// AvailableMemoryMB reads MemAvailable from /proc/meminfo.
func AvailableMemoryMB() (int, bool) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, false
	}
	defer func() { _ = f.Close() }()
	return parseMemAvailable(f)
}

func parseMemAvailable(r io.Reader) (int, bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "MemAvailable:" {
			continue
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, false
		}
		return kb / 1024, true
	}
	return 0, false
}
