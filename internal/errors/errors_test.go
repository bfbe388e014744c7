package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu       sync.Mutex
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestBuilderSetsFields(t *testing.T) {
	ee := Newf("snapshot %s not found", "x.csv").
		Component("dataset").
		Category(CategoryNotFound).
		Context("path", "x.csv").
		Build()

	assert.Equal(t, "dataset", ee.GetComponent())
	assert.True(t, IsNotFound(ee))
	assert.Equal(t, "x.csv", ee.GetContext()["path"])

	wrapped := fmt.Errorf("outer: %w", ee)
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, Is(wrapped, &EnhancedError{Category: CategoryNotFound}))
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorCategory
	}{
		{"record not found", CategoryNotFound},
		{"connection refused", CategoryNetwork},
		{"parse csv header", CategoryFileParsing},
		{"open file", CategoryFileIO},
		{"invalid method", CategoryValidation},
		{"boom", CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, New(NewStd(tt.msg)).Build().Category)
		})
	}
}

func TestReporterReceivesErrors(t *testing.T) {
	r := &recordingReporter{}
	SetTelemetryReporter(r)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := Newf("download failed").Category(CategoryNetwork).Build()

	require.Len(t, r.reported, 1)
	assert.Same(t, ee, r.reported[0])
	assert.True(t, ee.IsReported())
}

func TestScrubMessage(t *testing.T) {
	scrubbed := scrubMessage("GET https://example.org/TAP/sync?query=select&api_key=abc failed")
	assert.Contains(t, scrubbed, "https://example.org/TAP/sync?[REDACTED]")
	assert.NotContains(t, scrubbed, "api_key=abc")
}
