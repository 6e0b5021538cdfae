package testutil

import "sync"

// RecordingLogger captures log messages so tests can assert on warnings
// emitted for skipped nodes.
type RecordingLogger struct {
	mu       sync.Mutex
	Debugs   []string
	Infos    []string
	Warnings []string
	Errors   []string
}

func (l *RecordingLogger) Debug(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *RecordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *RecordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warnings = append(l.Warnings, msg)
}

func (l *RecordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

// WarningCount returns the number of warnings recorded so far.
func (l *RecordingLogger) WarningCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warnings)
}
