package nosql

// Fields carries structured context for a log line ("backend", "err", ...).
type Fields map[string]any

// Logger receives the manager's lifecycle messages. Adapters for logrus, zap
// and slog live under log/. A nil Logger in Options means NopLogger.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
