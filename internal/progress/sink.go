// Package progress writes the run's externally consumed progress files:
// an append-only per-snapshot loop file and a small fixed-format record
// written once when the run stops.
package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives throttled progress snapshots and the final stop record.
type Sink interface {
	// Snapshot appends one line: runLabel, evaluationCount, bestFitness,
	// unusedCounter. The fitness is already sign-adjusted by the caller.
	Snapshot(runLabel string, evaluations int, bestFitness float64, unused int) error
	// StopRecord overwrites the stop file with the fixed four-line
	// record: a "Stop" command line, an unused run-name line, the
	// elapsed-time line and the best-fitness summary line.
	StopRecord(elapsed string, summary string) error
}

const (
	loopFileName = "progress.csv"
	stopFileName = "stoprun.txt"
)

// FileSink is the filesystem implementation. Each snapshot opens the
// loop file in append mode and closes it again, so readers tailing the
// file see complete lines.
type FileSink struct {
	mu       sync.Mutex
	loopPath string
	stopPath string
}

// NewFileSink creates the output directory if needed and truncates any
// loop file left over from a previous run.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create progress directory: %w", err)
	}
	s := &FileSink{
		loopPath: filepath.Join(dir, loopFileName),
		stopPath: filepath.Join(dir, stopFileName),
	}
	if err := os.WriteFile(s.loopPath, nil, 0644); err != nil {
		return nil, fmt.Errorf("failed to reset loop file: %w", err)
	}
	return s, nil
}

// LoopPath returns the loop file location.
func (s *FileSink) LoopPath() string { return s.loopPath }

// StopPath returns the stop record location.
func (s *FileSink) StopPath() string { return s.stopPath }

func (s *FileSink) Snapshot(runLabel string, evaluations int, bestFitness float64, unused int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.loopPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open loop file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s, %d, %g, %d\n", runLabel, evaluations, bestFitness, unused); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

func (s *FileSink) StopRecord(elapsed string, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := fmt.Sprintf("Stop\n\n%s\n%s\n", elapsed, summary)
	if err := os.WriteFile(s.stopPath, []byte(record), 0644); err != nil {
		return fmt.Errorf("failed to write stop record: %w", err)
	}
	return nil
}

// Discard is a no-op sink for runs that do not report progress.
type Discard struct{}

func (Discard) Snapshot(string, int, float64, int) error { return nil }
func (Discard) StopRecord(string, string) error          { return nil }

// Memory keeps snapshots in memory; used by tests.
type Memory struct {
	mu        sync.Mutex
	Snapshots []MemorySnapshot
	Stops     []string
}

// MemorySnapshot is one recorded Snapshot call.
type MemorySnapshot struct {
	RunLabel    string
	Evaluations int
	BestFitness float64
	Unused      int
}

func (m *Memory) Snapshot(runLabel string, evaluations int, bestFitness float64, unused int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots = append(m.Snapshots, MemorySnapshot{
		RunLabel:    runLabel,
		Evaluations: evaluations,
		BestFitness: bestFitness,
		Unused:      unused,
	})
	return nil
}

func (m *Memory) StopRecord(elapsed string, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stops = append(m.Stops, elapsed+"\n"+summary)
	return nil
}
