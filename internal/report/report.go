// Package report records launch results as a JSON session file.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Status of one recorded launch
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Result captures one launch of one instance
type Result struct {
	Instance    string        `json:"instance"`
	Problem     string        `json:"problem"`
	Status      string        `json:"status"`
	Launches    int           `json:"launches,omitempty"`
	Duration    time.Duration `json:"duration_ns,omitempty"`
	GFLOPS      float64       `json:"gflops,omitempty"`
	MaxAbsError float64       `json:"max_abs_error,omitempty"`
	Cycles      uint64        `json:"cycles,omitempty"`
	Error       string        `json:"error,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Recorder accumulates results and rewrites its file after every Add, so a
// crash mid-session keeps what was already recorded. A Recorder with an
// empty path keeps results in memory only.
type Recorder struct {
	mu      sync.Mutex
	path    string
	results []Result
	now     func() time.Time
}

// NewRecorder starts a session written to path
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path, now: time.Now}
}

// Add stamps r and appends it
func (rec *Recorder) Add(r Result) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	r.Timestamp = rec.now()
	rec.results = append(rec.results, r)
	return rec.flush()
}

// Fail records a launch that returned err
func (rec *Recorder) Fail(instance, problem string, err error) error {
	return rec.Add(Result{Instance: instance, Problem: problem, Status: StatusFail, Error: err.Error()})
}

// Results returns a copy of everything recorded so far
func (rec *Recorder) Results() []Result {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Result(nil), rec.results...)
}

func (rec *Recorder) flush() error {
	if rec.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(rec.results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return os.WriteFile(rec.path, data, 0o644)
}

// Load reads a session file written by a Recorder
func Load(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

// Summarize prints one line per result and the pass/fail totals
func Summarize(w io.Writer, results []Result) (passed, failed int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
			fmt.Fprintf(w, "pass %-60s %12v", r.Instance, r.Duration)
			if r.GFLOPS > 0 {
				fmt.Fprintf(w, " %8.2f GFLOP/s", r.GFLOPS)
			}
			fmt.Fprintln(w)
		default:
			failed++
			fmt.Fprintf(w, "FAIL %-60s %s\n", r.Instance, r.Error)
		}
	}
	fmt.Fprintf(w, "total %d, passed %d, failed %d\n", len(results), passed, failed)
	return passed, failed
}
