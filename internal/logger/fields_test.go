package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	enriched.Info("another log")
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  gemini  ", "text-embedding-004")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProvider || fields[0].String != "gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if fields[1].Key != FieldModel || fields[1].String != "text-embedding-004" {
		t.Fatalf("unexpected model field: %+v", fields[1])
	}

	if empty := CommonFields("", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestMatchFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	l := WithFields(zap.New(core), MatchFields("keyword", "cv.pdf", 12, 3)...)
	l.Info("matched")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldMode] != "keyword" {
		t.Fatalf("unexpected mode: %v", ctx[FieldMode])
	}
	if ctx[FieldResume] != "cv.pdf" {
		t.Fatalf("unexpected resume: %v", ctx[FieldResume])
	}
	if ctx[FieldJobs] != int64(12) || ctx[FieldMatched] != int64(3) {
		t.Fatalf("unexpected counters: %v / %v", ctx[FieldJobs], ctx[FieldMatched])
	}
}

func TestMatchFieldsSkipsEmptyResume(t *testing.T) {
	fields := MatchFields("semantic", "", 1, 0)
	for _, f := range fields {
		if f.Key == FieldResume {
			t.Fatalf("did not expect resume field: %+v", f)
		}
	}
}

func TestNew(t *testing.T) {
	l, err := New(true, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}
