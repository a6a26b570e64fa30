// Package stats provides timing and counters for drop batches.
// It captures how long expanding the dropped paths and dispatching the batch
// took, what the batch produced, and memory usage at the end.
package stats

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/leonardomso/nopreview/internal/pipeline"
)

// Stats holds performance metrics for one insert run.
type Stats struct {
	// Timing for each phase
	ExpandStart   time.Time
	ExpandEnd     time.Time
	DispatchStart time.Time
	DispatchEnd   time.Time

	// Counts
	FilesDropped int
	BytesDropped uint64
	Extensions   int
	Linked       int
	Embedded     int
	Failed       int
	Intercepted  bool

	// Memory stats (captured at end)
	HeapAlloc    uint64
	TotalAlloc   uint64
	NumGC        uint32
	NumGoroutine int
}

// New creates a new Stats instance.
func New() *Stats {
	return &Stats{}
}

// StartExpand marks the beginning of the path expansion phase.
func (s *Stats) StartExpand() {
	s.ExpandStart = time.Now()
}

// EndExpand marks the end of path expansion.
func (s *Stats) EndExpand(files int, bytes uint64, extensions int) {
	s.ExpandEnd = time.Now()
	s.FilesDropped = files
	s.BytesDropped = bytes
	s.Extensions = extensions
}

// StartDispatch marks the beginning of event dispatch.
func (s *Stats) StartDispatch() {
	s.DispatchStart = time.Now()
}

// EndDispatch records the outcome of dispatch and captures memory stats.
// intercepted tells whether the batch was taken over from the default
// handling.
func (s *Stats) EndDispatch(outcome pipeline.Outcome, intercepted bool) {
	s.DispatchEnd = time.Now()

	sum := pipeline.Summarize(outcome)
	s.Linked = sum.Linked
	s.Embedded = sum.Embedded
	s.Failed = sum.Failed
	s.Intercepted = intercepted

	s.captureMemoryStats()
}

// captureMemoryStats reads current memory statistics from runtime.
func (s *Stats) captureMemoryStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.HeapAlloc = m.HeapAlloc
	s.TotalAlloc = m.TotalAlloc
	s.NumGC = m.NumGC
	s.NumGoroutine = runtime.NumGoroutine()
}

// ExpandDuration returns the time spent expanding dropped paths.
func (s *Stats) ExpandDuration() time.Duration {
	if s.ExpandEnd.IsZero() {
		return 0
	}
	return s.ExpandEnd.Sub(s.ExpandStart)
}

// DispatchDuration returns the time spent saving files and inserting text.
func (s *Stats) DispatchDuration() time.Duration {
	if s.DispatchEnd.IsZero() {
		return 0
	}
	return s.DispatchEnd.Sub(s.DispatchStart)
}

// TotalDuration returns the time from expand start to dispatch end.
func (s *Stats) TotalDuration() time.Duration {
	if s.DispatchEnd.IsZero() {
		return 0
	}
	return s.DispatchEnd.Sub(s.ExpandStart)
}

// FilesPerSecond returns the dispatch throughput.
func (s *Stats) FilesPerSecond() float64 {
	d := s.DispatchDuration()
	if d == 0 || s.FilesDropped == 0 {
		return 0
	}
	return float64(s.FilesDropped) / d.Seconds()
}

// AvgFileTime returns the average dispatch time per file.
func (s *Stats) AvgFileTime() time.Duration {
	if s.FilesDropped == 0 {
		return 0
	}
	return s.DispatchDuration() / time.Duration(s.FilesDropped)
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%.1fs", int(d.Minutes()), d.Seconds()-float64(int(d.Minutes())*60))
}

// FormatBytes formats bytes for human-readable display.
func FormatBytes(bytes uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func percent(part, total time.Duration) string {
	if total <= 0 {
		return ""
	}
	return fmt.Sprintf("  (%4.1f%%)", float64(part)/float64(total)*100)
}

// String returns a formatted string representation of the stats.
func (s *Stats) String() string {
	var b strings.Builder

	total := s.TotalDuration()

	b.WriteString("\n=== Batch Statistics ===\n\n")

	b.WriteString("Timing:\n")
	fmt.Fprintf(&b, "  Expand paths:  %8s%s\n", FormatDuration(s.ExpandDuration()), percent(s.ExpandDuration(), total))
	fmt.Fprintf(&b, "  Save & insert: %8s%s\n", FormatDuration(s.DispatchDuration()), percent(s.DispatchDuration(), total))
	b.WriteString("  ─────────────────────────\n")
	fmt.Fprintf(&b, "  Total:         %8s\n", FormatDuration(total))

	b.WriteString("\nBatch:\n")
	fmt.Fprintf(&b, "  Files dropped:     %5d\n", s.FilesDropped)
	fmt.Fprintf(&b, "  Size:          %9s\n", FormatBytes(s.BytesDropped))
	fmt.Fprintf(&b, "  Extensions:        %5d\n", s.Extensions)
	fmt.Fprintf(&b, "  Linked:            %5d\n", s.Linked)
	fmt.Fprintf(&b, "  Embedded:          %5d\n", s.Embedded)
	if s.Failed > 0 {
		fmt.Fprintf(&b, "  Failed:            %5d\n", s.Failed)
	}
	fmt.Fprintf(&b, "  Intercepted:       %5t\n", s.Intercepted)
	fmt.Fprintf(&b, "  Files/second:      %5.1f\n", s.FilesPerSecond())
	fmt.Fprintf(&b, "  Avg per file:    %7s\n", FormatDuration(s.AvgFileTime()))

	b.WriteString("\nMemory:\n")
	fmt.Fprintf(&b, "  Heap in use:   %8s\n", FormatBytes(s.HeapAlloc))
	fmt.Fprintf(&b, "  Total alloc:   %8s\n", FormatBytes(s.TotalAlloc))
	fmt.Fprintf(&b, "  GC cycles:     %8d\n", s.NumGC)
	fmt.Fprintf(&b, "  Goroutines:    %8d\n", s.NumGoroutine)

	return b.String()
}

// ToJSON returns a map suitable for JSON serialization.
func (s *Stats) ToJSON() map[string]any {
	return map[string]any{
		"timing": map[string]any{
			"expand_ms":   s.ExpandDuration().Milliseconds(),
			"dispatch_ms": s.DispatchDuration().Milliseconds(),
			"total_ms":    s.TotalDuration().Milliseconds(),
		},
		"batch": map[string]any{
			"files_dropped":    s.FilesDropped,
			"bytes_dropped":    s.BytesDropped,
			"extensions":       s.Extensions,
			"linked":           s.Linked,
			"embedded":         s.Embedded,
			"failed":           s.Failed,
			"intercepted":      s.Intercepted,
			"files_per_second": s.FilesPerSecond(),
			"avg_file_ms":      s.AvgFileTime().Milliseconds(),
		},
		"memory": map[string]any{
			"heap_bytes":  s.HeapAlloc,
			"total_bytes": s.TotalAlloc,
			"gc_cycles":   s.NumGC,
			"goroutines":  s.NumGoroutine,
		},
	}
}
