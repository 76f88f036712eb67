package suite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
)

var ErrUnknownCase = errors.New("unknown case")

type Case struct {
	Name string
	Run  func(ctx context.Context, t *T) error
}

type Result struct {
	Name     string
	Status   Status
	Message  string
	Duration time.Duration
	Logs     []string
}

type Summary struct {
	ID        uuid.UUID
	Cancelled bool
	Run       int
	Passed   int
	Failures int
	Errors   int
	Skipped  int
	Duration time.Duration
	Results  []Result
}

// OK reports a complete run without failures or errors.
func (s Summary) OK() bool {
	return !s.Cancelled && s.Failures == 0 && s.Errors == 0
}

func (s Summary) String() string {
	out := fmt.Sprintf("run=%d passed=%d failures=%d errors=%d skipped=%d", s.Run, s.Passed, s.Failures, s.Errors, s.Skipped)
	if s.Cancelled {
		out += " cancelled"
	}
	return out
}

type RunInfo struct {
	ID        uuid.UUID
	NodeURL   string
	Version   string
	StartedAt time.Time
	Cases     []string
}

// Observer is notified as a run progresses. Errors are logged and never
// change the outcome of the run.
type Observer interface {
	RunStarted(ctx context.Context, info RunInfo) error
	CaseFinished(ctx context.Context, info RunInfo, result Result) error
	RunFinished(ctx context.Context, info RunInfo, summary Summary) error
}

type RunnerOption func(*Runner)

func WithObservers(observers ...Observer) RunnerOption {
	return func(r *Runner) {
		r.observers = append(r.observers, observers...)
	}
}

func WithNodeURL(url string) RunnerOption {
	return func(r *Runner) {
		r.nodeURL = url
	}
}

func WithVersion(version string) RunnerOption {
	return func(r *Runner) {
		r.version = version
	}
}

// Runner executes cases one after another and writes a text report.
type Runner struct {
	out       io.Writer
	observers []Observer
	nodeURL   string
	version   string
}

func NewRunner(out io.Writer, opts ...RunnerOption) *Runner {
	if out == nil {
		out = io.Discard
	}
	r := &Runner{out: out}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Select keeps the cases named in names, in suite order. An empty list keeps all.
func Select(cases []Case, names []string) ([]Case, error) {
	if len(names) == 0 {
		return cases, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.TrimSpace(name)] = true
	}
	selected := make([]Case, 0, len(names))
	for _, c := range cases {
		if wanted[c.Name] {
			selected = append(selected, c)
			delete(wanted, c.Name)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for name := range wanted {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownCase, strings.Join(unknown, ", "))
	}
	return selected, nil
}

func (r *Runner) Run(ctx context.Context, cases []Case) (Summary, error) {
	info := RunInfo{
		ID:        uuid.New(),
		NodeURL:   r.nodeURL,
		Version:   r.version,
		StartedAt: time.Now(),
		Cases:     make([]string, 0, len(cases)),
	}
	for _, c := range cases {
		info.Cases = append(info.Cases, c.Name)
	}
	summary := Summary{ID: info.ID}
	// observers record what happened even after the run is cancelled
	observerCtx := context.WithoutCancel(ctx)

	for _, o := range r.observers {
		if err := o.RunStarted(observerCtx, info); err != nil {
			slog.Error("Observer failed on run start", "run", info.ID, "error", err)
		}
	}
	slog.Info("Starting run", "run", info.ID, "node", r.nodeURL, "cases", len(cases))

	for _, c := range cases {
		if _, err := fmt.Fprintf(r.out, "=== RUN   %s\n", c.Name); err != nil {
			return summary, fmt.Errorf("failed to write report: %w", err)
		}

		var result Result
		if ctx.Err() != nil {
			result = Result{Name: c.Name, Status: StatusSkip, Message: "run cancelled"}
		} else {
			result = runCase(ctx, c)
		}

		summary.Run++
		switch result.Status {
		case StatusPass:
			summary.Passed++
		case StatusFail:
			summary.Failures++
		case StatusError:
			summary.Errors++
		case StatusSkip:
			summary.Skipped++
		}
		summary.Results = append(summary.Results, result)

		if err := writeResult(r.out, result); err != nil {
			return summary, fmt.Errorf("failed to write report: %w", err)
		}
		slog.Debug("Case finished", "case", result.Name, "status", result.Status, "duration", result.Duration)

		for _, o := range r.observers {
			if err := o.CaseFinished(observerCtx, info, result); err != nil {
				slog.Error("Observer failed on case", "run", info.ID, "case", result.Name, "error", err)
			}
		}
	}
	summary.Duration = time.Since(info.StartedAt)
	summary.Cancelled = ctx.Err() != nil

	if err := writeSummary(r.out, summary); err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}

	for _, o := range r.observers {
		if err := o.RunFinished(observerCtx, info, summary); err != nil {
			slog.Error("Observer failed on run finish", "run", info.ID, "error", err)
		}
	}
	slog.Info("Run finished", "run", info.ID, "summary", summary.String(), "duration", summary.Duration)

	return summary, nil
}

func runCase(ctx context.Context, c Case) Result {
	t := newT(c.Name)
	var (
		err      error
		panicked any
	)
	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			panicked = recover()
		}()
		err = c.Run(ctx, t)
	}()
	<-done

	logs, failures := t.snapshot()
	result := Result{
		Name:     c.Name,
		Duration: time.Since(start),
		Logs:     logs,
	}
	switch {
	case panicked != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("panic: %v", panicked)
	case err != nil:
		result.Status = StatusError
		result.Message = err.Error()
	case t.Skipped():
		result.Status = StatusSkip
		if len(logs) > 0 {
			result.Message = logs[len(logs)-1]
		}
	case t.Failed():
		result.Status = StatusFail
		result.Message = strings.Join(failures, "\n")
		if result.Message == "" {
			result.Message = "FailNow called"
		}
	default:
		result.Status = StatusPass
	}
	return result
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n") + "\n"
}

func writeResult(w io.Writer, result Result) error {
	var b strings.Builder
	for _, line := range result.Logs {
		b.WriteString(indent(line, "    "))
	}
	// Skip reasons are already part of the logs unless the case never started
	if result.Message != "" && (result.Status == StatusError || (result.Status == StatusSkip && len(result.Logs) == 0)) {
		b.WriteString(indent(result.Message, "    "))
	}
	fmt.Fprintf(&b, "--- %s: %s (%.2fs)\n", result.Status, result.Name, result.Duration.Seconds())
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummary(w io.Writer, summary Summary) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("-", 70) + "\n")
	fmt.Fprintf(&b, "Ran %d cases in %.3fs\n\n", summary.Run, summary.Duration.Seconds())
	if summary.Cancelled {
		fmt.Fprintf(&b, "CANCELLED (failures=%d, errors=%d, skipped=%d)\n", summary.Failures, summary.Errors, summary.Skipped)
	} else if summary.OK() {
		if summary.Skipped > 0 {
			fmt.Fprintf(&b, "OK (skipped=%d)\n", summary.Skipped)
		} else {
			b.WriteString("OK\n")
		}
	} else {
		fmt.Fprintf(&b, "FAILED (failures=%d, errors=%d, skipped=%d)\n", summary.Failures, summary.Errors, summary.Skipped)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
