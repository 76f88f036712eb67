package suite

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
	StatusSkip  Status = "SKIP"
)

// T is handed to every case. It satisfies the TestingT interfaces of
// testify's assert and require packages.
type T struct {
	name string

	mu       sync.Mutex
	logs     []string
	failures []string
	failed   bool
	skipped  bool
}

func newT(name string) *T {
	return &T{name: name}
}

func (t *T) Name() string {
	return t.name
}

func (t *T) Helper() {}

func (t *T) Logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

func (t *T) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, msg)
	t.failures = append(t.failures, strings.TrimSpace(msg))
	t.failed = true
}

// FailNow marks the case failed and stops it.
func (t *T) FailNow() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
	runtime.Goexit()
}

func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

// Skip records the reason and stops the case without failing it.
func (t *T) Skip(args ...any) {
	t.mu.Lock()
	t.logs = append(t.logs, fmt.Sprint(args...))
	t.skipped = true
	t.mu.Unlock()
	runtime.Goexit()
}

func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *T) Skipped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped
}

func (t *T) snapshot() (logs, failures []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.logs...), append([]string(nil), t.failures...)
}
