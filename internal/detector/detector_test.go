package detector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
	"watchtime/internal/classifier"
	"watchtime/internal/testutil"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx    context.Context
	clock  *quartz.Mock
	page   *ScriptPage
	sender *testutil.MockSender
	det    *Detector
}

func newFixture(t *testing.T, setup ...ScriptStep) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := quartz.NewMock(t)
	steps := append([]ScriptStep{
		{Event: StepPage, Title: "Cats", URL: "https://www.youtube.com/watch?v=1"},
		{Event: StepAdd, Media: "v1", Duration: 600, Width: 1920, Height: 1080},
	}, setup...)
	page, err := NewScriptPage(steps, clock)
	require.NoError(t, err)

	f := &fixture{
		ctx:    ctx,
		clock:  clock,
		page:   page,
		sender: &testutil.MockSender{},
	}
	f.det = NewDetector(page, f.sender, clock, &testutil.MockLogger{}, 5*time.Second)
	f.det.Start(ctx)
	t.Cleanup(f.det.Stop)
	return f
}

func (f *fixture) advance(seconds int) {
	for i := 0; i < seconds; i++ {
		f.clock.Advance(time.Second).MustWait(f.ctx)
	}
}

func (f *fixture) event(t *testing.T, ev Event, media string) {
	t.Helper()
	require.NoError(t, f.page.apply(ScriptStep{Event: string(ev), Media: media}))
}

func (f *fixture) seconds() []int64 {
	var out []int64
	for _, r := range f.sender.Sent() {
		out = append(out, r.Seconds)
	}
	return out
}

func TestDetector_PauseFlushesImmediately(t *testing.T) {
	f := newFixture(t)
	f.event(t, EventPlay, "v1")
	assert.Equal(t, Active, f.det.State())

	f.advance(3)
	assert.Equal(t, int64(3), f.det.Accumulated())

	f.event(t, EventPause, "v1")
	assert.Equal(t, Idle, f.det.State())
	assert.Equal(t, int64(0), f.det.Accumulated())

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(3), sent[0].Seconds)
	assert.Equal(t, "www.youtube.com", sent[0].Domain)
	assert.Equal(t, "Cats", sent[0].Title)
	assert.Equal(t, classifier.LongForm, sent[0].Category)
	assert.Equal(t, "logTime", sent[0].Action)
}

func TestDetector_IdleDoesNotAccumulate(t *testing.T) {
	f := newFixture(t)
	f.event(t, EventPlay, "v1")
	f.advance(2)
	f.event(t, EventWaiting, "v1")
	f.advance(4)
	assert.Equal(t, []int64{2}, f.seconds())
	assert.Equal(t, int64(0), f.det.Accumulated())
}

func TestDetector_PeriodicFlush(t *testing.T) {
	f := newFixture(t)
	f.event(t, EventPlay, "v1")

	f.advance(4)
	assert.Empty(t, f.sender.Sent())

	f.advance(1)
	assert.Equal(t, []int64{5}, f.seconds())

	f.advance(5)
	assert.Equal(t, []int64{5, 5}, f.seconds())
}

func TestDetector_VisibilityChangeUsesPreviousState(t *testing.T) {
	f := newFixture(t)
	f.event(t, EventPlay, "v1")
	f.advance(3)

	require.NoError(t, f.page.apply(ScriptStep{Event: StepHidden}))
	f.advance(2)
	f.event(t, EventPause, "v1")

	sent := f.sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(3), sent[0].Seconds)
	assert.Equal(t, "Long Form", sent[0].Category)
	assert.Equal(t, int64(2), sent[1].Seconds)
	assert.Equal(t, "Long Form (Background)", sent[1].Category)
}

func TestDetector_VisibilityChangeWithNothingAccrued(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.page.apply(ScriptStep{Event: StepHidden}))
	require.NoError(t, f.page.apply(ScriptStep{Event: StepVisible}))
	assert.Empty(t, f.sender.Sent())
}

func TestDetector_SimultaneousMediaCountOnce(t *testing.T) {
	f := newFixture(t, ScriptStep{Event: StepAdd, Media: "v2", Duration: 30, Width: 1080, Height: 1920})
	f.event(t, EventPlay, "v1")
	f.event(t, EventPlaying, "v2")
	f.advance(3)

	f.event(t, EventPause, "v1")
	assert.Empty(t, f.sender.Sent(), "v2 still plays")
	f.advance(1)
	f.event(t, EventEnded, "v2")

	assert.Equal(t, []int64{4}, f.seconds())
}

func TestDetector_ClassifiesFirstActiveElement(t *testing.T) {
	f := newFixture(t, ScriptStep{Event: StepAdd, Media: "v2", Duration: 30, Width: 1080, Height: 1920})
	f.event(t, EventPlay, "v2")
	f.advance(2)
	f.event(t, EventPause, "v2")

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, classifier.ShortVideo, sent[0].Category)
}

func TestDetector_LiveAndShorts(t *testing.T) {
	f := newFixture(t,
		ScriptStep{Event: StepPage, URL: "https://www.youtube.com/shorts/abc"},
		ScriptStep{Event: StepAdd, Media: "live", Duration: math.Inf(1), Width: 1920, Height: 1080},
		ScriptStep{Event: StepAdd, Media: "short", Duration: 600, Width: 720, Height: 1280},
	)
	f.event(t, EventPlay, "short")
	f.advance(1)
	f.event(t, EventPause, "short")
	f.event(t, EventPlay, "live")
	f.advance(1)
	f.event(t, EventPause, "live")

	sent := f.sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, classifier.YouTubeShorts, sent[0].Category)
	assert.Equal(t, classifier.LiveStream, sent[1].Category)
}

func TestDetector_SendFailureHalts(t *testing.T) {
	f := newFixture(t)
	f.sender.Err = errors.New("extension context invalidated")

	f.event(t, EventPlay, "v1")
	f.advance(5)
	require.Len(t, f.sender.Sent(), 1)
	assert.True(t, f.det.Halted())
	assert.Equal(t, int64(0), f.det.Accumulated(), "no retry accumulation")

	f.advance(6)
	f.event(t, EventPause, "v1")
	f.event(t, EventPlay, "v1")
	f.page.Teardown()
	assert.Len(t, f.sender.Sent(), 1)
	assert.Equal(t, Idle, f.det.State())
}

func TestDetector_DiscoverIsIdempotent(t *testing.T) {
	f := newFixture(t)
	el := f.page.Media()[0]
	f.det.Discover(el)
	f.det.Discover(el)

	f.page.mu.Lock()
	subs := len(f.page.subs["v1"])
	f.page.mu.Unlock()
	assert.Equal(t, 1, subs)

	f.event(t, EventPlay, "v1")
	f.advance(2)
	f.event(t, EventPause, "v1")
	assert.Equal(t, []int64{2}, f.seconds())
}

func TestDetector_DynamicInsertion(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.page.apply(ScriptStep{Event: StepAdd, Media: "late", Duration: 600, Width: 1920, Height: 1080}))

	f.event(t, EventPlay, "late")
	f.advance(2)
	f.event(t, EventPause, "late")
	assert.Equal(t, []int64{2}, f.seconds())
}

func TestDetector_InitialScanJoinsPlayingElement(t *testing.T) {
	f := newFixture(t, ScriptStep{Event: StepAdd, Media: "auto", Duration: 600, Width: 1920, Height: 1080, Playing: true})
	assert.Equal(t, Active, f.det.State())

	f.advance(2)
	f.page.Teardown()

	assert.Equal(t, []int64{2}, f.seconds())
	assert.True(t, f.det.Halted())
}

func TestDetector_ZeroDeltaNotSent(t *testing.T) {
	f := newFixture(t)
	f.event(t, EventPlay, "v1")
	f.event(t, EventPause, "v1")
	f.page.Teardown()
	assert.Empty(t, f.sender.Sent())
}

func TestDetector_StopEventForInactiveElementIgnored(t *testing.T) {
	f := newFixture(t)
	f.event(t, EventPause, "v1")
	assert.Equal(t, Idle, f.det.State())
	assert.Empty(t, f.sender.Sent())
}

func TestDetector_LocalDomain(t *testing.T) {
	f := newFixture(t, ScriptStep{Event: StepPage, URL: "file:///home/me/movie.html"})
	f.event(t, EventPlay, "v1")
	f.advance(1)
	f.event(t, EventPause, "v1")
	require.Len(t, f.sender.Sent(), 1)
	assert.Equal(t, "local", f.sender.Sent()[0].Domain)
}

func TestEvent_Classes(t *testing.T) {
	assert.True(t, EventPlay.Starts())
	assert.True(t, EventPlaying.Starts())
	for _, ev := range []Event{EventPause, EventEnded, EventWaiting, EventStalled, EventEmptied} {
		assert.True(t, ev.Stops(), ev)
		assert.False(t, ev.Starts(), ev)
	}
	assert.False(t, Event("seeking").Stops())
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "idle", Idle.String())
}
