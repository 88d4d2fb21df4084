package testdoubles

import (
	"context"
	"sync"
)

// LogRecord is one captured log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Attr returns the value of the named attribute and whether it was present.
func (r LogRecord) Attr(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if r.Args[i] == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

// ContextualLoggerSpy captures the calls of both the Logger and the ContextualLogger interfaces.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewContextualLoggerSpy creates an empty ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// DebugContext implements eventstore.ContextualLogger.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

// InfoContext implements eventstore.ContextualLogger.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

// WarnContext implements eventstore.ContextualLogger.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

// ErrorContext implements eventstore.ContextualLogger.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

// Debug implements eventstore.Logger.
func (s *ContextualLoggerSpy) Debug(msg string, args ...any) {
	s.record(context.Background(), "debug", msg, args)
}

// Info implements eventstore.Logger.
func (s *ContextualLoggerSpy) Info(msg string, args ...any) {
	s.record(context.Background(), "info", msg, args)
}

// Warn implements eventstore.Logger.
func (s *ContextualLoggerSpy) Warn(msg string, args ...any) {
	s.record(context.Background(), "warn", msg, args)
}

// Error implements eventstore.Logger.
func (s *ContextualLoggerSpy) Error(msg string, args ...any) {
	s.record(context.Background(), "error", msg, args)
}

// Records returns a copy of all captured records.
func (s *ContextualLoggerSpy) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]LogRecord(nil), s.records...)
}

// RecordsAt returns the captured records of one level.
func (s *ContextualLoggerSpy) RecordsAt(level string) []LogRecord {
	matching := make([]LogRecord, 0)

	for _, record := range s.Records() {
		if record.Level == level {
			matching = append(matching, record)
		}
	}

	return matching
}

// HasMessage reports whether a record with the level and message was captured.
func (s *ContextualLoggerSpy) HasMessage(level, msg string) bool {
	for _, record := range s.RecordsAt(level) {
		if record.Message == msg {
			return true
		}
	}

	return false
}
