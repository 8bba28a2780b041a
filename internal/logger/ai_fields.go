package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys identifying which model backend produced a log entry. Every
// extraction, embedding and composition log line carries both.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
)

// StringField is a key/value pair destined for a zap string field.
type StringField struct {
	Key   string
	Value string
}

// StringFields builds zap fields from the pairs, dropping any with a blank
// key or value after trimming.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the fields to the logger. A nil logger becomes a
// no-op logger, and no fields means the logger is returned as-is.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the provider and model fields for a pipeline stage,
// omitting whichever is not known.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields tags the logger with the provider and model fields.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	fields := CommonFields(provider, model)
	return WithFields(logger, fields...)
}
