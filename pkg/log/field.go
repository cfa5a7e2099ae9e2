package log

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Field is a structured log field.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a log field with the provided key and value.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field. The error is stored as its message.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Str(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Any creates a field for any value (alias for F).
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Json creates a field holding the JSON encoding of value.
func Json(key string, value interface{}) Field {
	b, err := json.Marshal(value)
	if err != nil {
		return Field{Key: key, Value: err.Error()}
	}
	return Field{Key: key, Value: string(b)}
}

// Component creates a component field.
func Component(value string) Field {
	return Field{Key: ComponentKey, Value: value}
}

// RequestID creates a request ID field.
func RequestID(value string) Field {
	return Field{Key: RequestIDKey, Value: value}
}

// zap converts the field, using typed constructors where the value allows.
func (f Field) zap() zap.Field {
	switch v := f.Value.(type) {
	case string:
		return zap.String(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case int64:
		return zap.Int64(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case float64:
		return zap.Float64(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case time.Time:
		return zap.Time(f.Key, v)
	}
	return zap.Any(f.Key, f.Value)
}
