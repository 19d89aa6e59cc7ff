// Package harness runs registered conformance cases and collects results. It
// serves two front ends: the cts command line runner, and RunGoTest, which
// maps every case onto a go test subtest.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"testing"
	"time"

	"github.com/zeebo/xxh3"
)

// Status classifies a finished case.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	StatusSkip
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	case StatusSkip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// Case is one registered conformance check.
type Case struct {
	Name string
	Run  func(t *T)
}

// Result is the outcome of one case.
type Result struct {
	Suite    string
	Case     string
	ID       string
	Status   Status
	Duration time.Duration
	Messages []string
}

// Suite is an ordered collection of cases sharing a name and a logger.
type Suite struct {
	name   string
	cases  []Case
	logger *slog.Logger
}

// NewSuite creates an empty suite. A nil logger falls back to slog.Default().
func NewSuite(name string, logger *slog.Logger) *Suite {
	if logger == nil {
		logger = slog.Default()
	}
	return &Suite{name: name, logger: logger}
}

func (s *Suite) Name() string { return s.name }

// Add registers a case. Names should be unique within the suite; the case ID
// disambiguates collisions in reported results regardless.
func (s *Suite) Add(name string, run func(t *T)) {
	s.cases = append(s.cases, Case{Name: name, Run: run})
}

// Cases returns the registered case list in registration order.
func (s *Suite) Cases() []Case {
	out := make([]Case, len(s.cases))
	copy(out, s.cases)
	return out
}

// CaseID derives the stable identifier reported for a case: the xxh3 hash of
// suite and case name, rendered as 16 hex digits.
func (s *Suite) CaseID(caseName string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(s.name+"/"+caseName))
}

// Run executes every case in order. Context cancellation stops the run
// between cases; the partial result list is returned.
func (s *Suite) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(s.cases))
	for _, c := range s.cases {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.runCase(c))
	}
	return results
}

func (s *Suite) runCase(c Case) Result {
	t := &T{}
	start := time.Now()

	func() {
		defer func() {
			if r := recover(); r != nil {
				if r == caseAborted {
					return
				}
				t.failed = true
				t.Messages = append(t.Messages,
					fmt.Sprintf("panic: %v\n%s", r, debug.Stack()))
			}
		}()
		c.Run(t)
	}()

	res := Result{
		Suite:    s.name,
		Case:     c.Name,
		ID:       s.CaseID(c.Name),
		Duration: time.Since(start),
		Messages: t.Messages,
	}
	switch {
	case t.failed:
		res.Status = StatusFail
		s.logger.Error("case failed", "suite", s.name, "case", c.Name, "id", res.ID)
	case t.skipped:
		res.Status = StatusSkip
		s.logger.Debug("case skipped", "suite", s.name, "case", c.Name)
	default:
		res.Status = StatusPass
		s.logger.Debug("case passed", "suite", s.name, "case", c.Name,
			"duration", res.Duration)
	}
	return res
}

// RunGoTest bridges the suite into go test: each case becomes a subtest and
// failures are reported through the testing API.
func RunGoTest(t *testing.T, s *Suite) {
	for _, c := range s.Cases() {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			res := s.runCase(c)
			for _, msg := range res.Messages {
				t.Log(msg)
			}
			switch res.Status {
			case StatusFail:
				t.Fail()
			case StatusSkip:
				t.SkipNow()
			}
		})
	}
}

// Summarize counts results by status.
func Summarize(results []Result) (pass, fail, skip int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			pass++
		case StatusFail:
			fail++
		case StatusSkip:
			skip++
		}
	}
	return
}

// caseAborted is the sentinel panic value Fatalf and Skipf unwind with.
var caseAborted = new(int)

// T collects failures for one running case. It deliberately mirrors the
// subset of testing.T the conformance checks need.
type T struct {
	failed   bool
	skipped  bool
	Messages []string
}

// Errorf records a failure and keeps the case running.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	t.Messages = append(t.Messages, fmt.Sprintf(format, args...))
}

// Fatalf records a failure and aborts the case.
func (t *T) Fatalf(format string, args ...interface{}) {
	t.Errorf(format, args...)
	panic(caseAborted)
}

// Skipf marks the case skipped and aborts it. A case that already failed
// stays failed.
func (t *T) Skipf(format string, args ...interface{}) {
	t.skipped = true
	t.Messages = append(t.Messages, fmt.Sprintf(format, args...))
	panic(caseAborted)
}

// Logf records an informational message.
func (t *T) Logf(format string, args ...interface{}) {
	t.Messages = append(t.Messages, fmt.Sprintf(format, args...))
}

// Failed reports whether the case has recorded a failure.
func (t *T) Failed() bool { return t.failed }
