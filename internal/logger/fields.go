package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the embedding provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the embedding model identifier.
	FieldModel = "ai_model"

	FieldMode     = "match_mode"
	FieldJobs     = "jobs_total"
	FieldMatched  = "jobs_matched"
	FieldResume   = "resume_file"
	FieldErrorKey = "error_kind"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
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

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	l = OrNop(l)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// CommonFields describes the embedding provider and model. Empty values are skipped.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// MatchFields summarises one match call.
func MatchFields(mode, resumeFile string, total, matched int) []zap.Field {
	fields := StringFields(
		StringField{Key: FieldMode, Value: mode},
		StringField{Key: FieldResume, Value: resumeFile},
	)
	return append(fields,
		zap.Int(FieldJobs, total),
		zap.Int(FieldMatched, matched),
	)
}
