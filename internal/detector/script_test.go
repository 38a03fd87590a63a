package detector

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"
	"watchtime/internal/testutil"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const session = `
# autoplaying video, backgrounded halfway
{"at":"0s","event":"page","title":"Cats","url":"https://www.youtube.com/watch?v=1"}
{"at":0,"event":"add","media":"v1","duration":600,"width":1920,"height":1080,"playing":true}
{"at":"3500ms","event":"pause","media":"v1"}
{"at":"1s","event":"add","media":"cam","live":true}
`

func TestParseScript(t *testing.T) {
	steps, err := ParseScript(strings.NewReader(session))
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, StepPage, steps[0].Event)
	assert.Equal(t, StepAdd, steps[1].Event)
	assert.True(t, steps[1].Playing)
	assert.Equal(t, 600.0, steps[1].Duration)
	assert.Equal(t, time.Second, steps[2].At, "sorted by offset")
	assert.True(t, math.IsInf(steps[2].Duration, 1))
	assert.Equal(t, 3500*time.Millisecond, steps[3].At)
}

func TestParseScript_NumericSecondsAndMissingDuration(t *testing.T) {
	steps, err := ParseScript(strings.NewReader(`{"at":1.5,"event":"add","media":"v"}`))
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, 1500*time.Millisecond, steps[0].At)
	assert.True(t, math.IsNaN(steps[0].Duration))
}

func TestParseScript_Errors(t *testing.T) {
	_, err := ParseScript(strings.NewReader(`{"at":"soon","event":"play"}`))
	assert.Error(t, err)

	_, err = ParseScript(strings.NewReader(`{"at":"1s"}`))
	assert.Error(t, err)

	_, err = ParseScript(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestNewScriptPage_UnknownEvent(t *testing.T) {
	_, err := NewScriptPage([]ScriptStep{{Event: "rewind", Media: "v1"}}, quartz.NewReal())
	assert.Error(t, err)

	_, err = NewScriptPage([]ScriptStep{{Event: "play", Media: "ghost"}}, quartz.NewReal())
	assert.Error(t, err)
}

func TestScriptPage_ReplayDrivesDetector(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	steps, err := ParseScript(strings.NewReader(session))
	require.NoError(t, err)

	clock := quartz.NewMock(t)
	trap := clock.Trap().NewTimer("script")
	defer trap.Close()

	page, err := NewScriptPage(steps, clock)
	require.NoError(t, err)
	assert.Len(t, page.Media(), 1, "only zero-offset steps applied")

	sender := &testutil.MockSender{}
	det := NewDetector(page, sender, clock, &testutil.MockLogger{}, 5*time.Second)
	det.Start(ctx)
	require.Equal(t, Active, det.State())

	done := make(chan error, 1)
	go func() { done <- page.Run(ctx) }()

	// first timer: add cam at 1s
	trap.MustWait(ctx).MustRelease(ctx)
	clock.Advance(time.Second).MustWait(ctx)

	// second timer: pause at 3.5s
	trap.MustWait(ctx).MustRelease(ctx)
	assert.Len(t, page.Media(), 2)
	clock.Advance(time.Second).MustWait(ctx)
	clock.Advance(time.Second).MustWait(ctx)
	clock.Advance(500 * time.Millisecond).MustWait(ctx)

	require.NoError(t, <-done)
	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(3), sent[0].Seconds)
	assert.Equal(t, "Long Form", sent[0].Category)
	assert.True(t, det.Halted(), "script end tears the page down")
}
