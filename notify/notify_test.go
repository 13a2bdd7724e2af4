// ABOUTME: Tests for notification relay and recorder
// ABOUTME: Verifies retargeting and fallback logging before a target is attached
package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestRelayFallsBackToLoggerWithoutTarget(t *testing.T) {
	var buf bytes.Buffer
	r := NewRelay(log.New(&buf))

	r.Notify(Errorf(errors.New("boom"), "Failed to load %s", "leads"))

	assert.Contains(t, buf.String(), "Failed to load leads")
	assert.Contains(t, buf.String(), "boom")
}

func TestRelayForwardsToTarget(t *testing.T) {
	var buf bytes.Buffer
	r := NewRelay(log.New(&buf))
	rec := &Recorder{}
	r.SetTarget(rec)

	r.Notify(Successf("Lead created"))
	r.Notify(Notice{Level: Error, Message: "no timestamp"})

	notices := rec.Notices()
	assert.Len(t, notices, 2)
	assert.Equal(t, Success, notices[0].Level)
	assert.False(t, notices[1].At.IsZero())
	assert.Empty(t, buf.String())
	assert.Len(t, rec.Errors(), 1)
}

func TestNoticeString(t *testing.T) {
	assert.Equal(t, "Saved", Notice{Message: "Saved"}.String())
	assert.Equal(t, "Failed: x", Notice{Message: "Failed", Err: errors.New("x")}.String())
}
