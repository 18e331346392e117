package logging

// Logger is a thin per-component wrapper over a Hook, grounded on the
// teacher's internal/logger.Logger: it carries a process/component name
// and a set of persistent fields, and every call is just a formatted
// Emit onto the shared sink.
type Logger struct {
	hook        *Hook
	processName string
	fields      map[string]interface{}
}

// NewLogger creates a Logger bound to hook under processName. If hook
// is nil, the process-wide Default() hook is used.
func NewLogger(hook *Hook, processName string) *Logger {
	if hook == nil {
		hook = Default()
	}
	return &Logger{hook: hook, processName: processName}
}

// With returns a derived Logger that always includes the supplied
// fields, without mutating the receiver.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	if l == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{hook: l.hook, processName: l.processName, fields: merged}
}

func (l *Logger) emit(level Level, msg string, extra map[string]interface{}) {
	if l == nil {
		return
	}
	payload := make(map[string]interface{}, len(l.fields)+len(extra))
	for k, v := range l.fields {
		payload[k] = v
	}
	for k, v := range extra {
		payload[k] = v
	}
	l.hook.Emit(Record{ProcessName: l.processName, Message: msg, Level: level, Payload: payload})
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) { l.emit(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]interface{})  { l.emit(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]interface{})  { l.emit(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields map[string]interface{}) { l.emit(LevelError, msg, fields) }
