package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_RendersTemplateProperties(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel).ForContext("Stage", "extract")

	log.Info("Added target: {Name} (type: {ModuleType})", "app", "executable")

	assert.Contains(t, buf.String(), "Added target")
	assert.Contains(t, buf.String(), "app")
	assert.Contains(t, buf.String(), "executable")
}

func TestLogger_MinimumLevel(t *testing.T) {
	tests := []struct {
		name  string
		level LogLevel
		log   func(Logger)
		want  bool
	}{
		{"info passes info", InfoLevel, func(l Logger) { l.Info("kept") }, true},
		{"info drops debug", InfoLevel, func(l Logger) { l.Debug("dropped") }, false},
		{"warn drops info", WarnLevel, func(l Logger) { l.Info("dropped") }, false},
		{"warn passes error", WarnLevel, func(l Logger) { l.Error("kept") }, true},
		{"verbose passes verbose", VerboseLevel, func(l Logger) { l.Verbose("kept") }, true},
		{"fatal drops error", FatalLevel, func(l Logger) { l.Error("dropped") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(&buf, tt.level))
			assert.Equal(t, tt.want, buf.Len() > 0, buf.String())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"verbose": VerboseLevel,
		"trace":   VerboseLevel,
		"DEBUG":   DebugLevel,
		" info ":  InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
		"":        InfoLevel,
		"loud":    InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "ParseLogLevel(%q)", in)
	}
}

func TestLogLevel_String(t *testing.T) {
	for level := VerboseLevel; level <= FatalLevel; level++ {
		assert.Equal(t, level, ParseLogLevel(level.String()))
	}
	assert.Equal(t, "info", LogLevel(42).String())
}

func TestNullLogger(t *testing.T) {
	log := NewNullLogger()
	log.Info("discarded {Value}", 1)
	assert.Equal(t, log, log.ForContext("k", "v"))
}
