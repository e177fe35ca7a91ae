// Package testutil provides common test utilities.
package testutil

import (
	"sync"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger for testing purposes.
// It records log messages and can be used to verify logging behavior.
// Child loggers from With and Named share the parent's record.
type MockLogger struct {
	rec    *record
	name   string
	fields []logging.Field
}

type record struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage represents a single log entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for i := len(m.Fields) - 1; i >= 0; i-- {
		if m.Fields[i].Key == key {
			return m.Fields[i].Value, true
		}
	}
	return nil, false
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	return &MockLogger{rec: &record{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.messages = append(m.rec.messages, LogMessage{
		Level:   level,
		Logger:  m.name,
		Message: msg,
		Fields:  all,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }

// Fatal records the entry without exiting.
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := *m
	child.fields = append(append([]logging.Field{}, m.fields...), fields...)
	return &child
}

func (m *MockLogger) Named(name string) logging.Logger {
	child := *m
	if m.name == "" {
		child.name = name
	} else {
		child.name = m.name + "." + name
	}
	return &child
}

func (m *MockLogger) Sync() error {
	return nil
}

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	result := make([]LogMessage, len(m.rec.messages))
	copy(result, m.rec.messages)
	return result
}

// Clear removes all logged messages.
func (m *MockLogger) Clear() {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.messages = m.rec.messages[:0]
}

// HasMessage checks if a message with the given level and content was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// Find returns the first entry with the given level and message.
func (m *MockLogger) Find(level, msg string) (LogMessage, bool) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	for _, logged := range m.rec.messages {
		if logged.Level == level && logged.Message == msg {
			return logged, true
		}
	}
	return LogMessage{}, false
}

//Personal.AI order the ending
