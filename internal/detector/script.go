package detector

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"
	"watchtime/internal/classifier"

	"github.com/coder/quartz"
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Script step kinds besides the media Events.
const (
	StepPage     = "page"
	StepAdd      = "add"
	StepHidden   = "hidden"
	StepVisible  = "visible"
	StepTeardown = "teardown"
)

// ScriptStep is one line of a session script, e.g.
//
//	{"at":"2s","event":"play","media":"v1"}
type ScriptStep struct {
	At       time.Duration
	Event    string
	Media    string
	Title    string
	URL      string
	Duration float64
	Width    int
	Height   int
	Playing  bool
}

type rawStep struct {
	At       any      `json:"at"`
	Event    string   `json:"event"`
	Media    string   `json:"media"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Duration *float64 `json:"duration"`
	Live     bool     `json:"live"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Playing  bool     `json:"playing"`
}

// ParseScript reads JSON lines. Blank lines and lines starting with # are
// skipped. "at" is a duration string or a number of seconds.
func ParseScript(r io.Reader) ([]ScriptStep, error) {
	var steps []ScriptStep
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		var raw rawStep
		if err := json.Unmarshal(text, &raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		at, err := parseOffset(raw.At)
		if err != nil {
			return nil, fmt.Errorf("line %d: at: %w", line, err)
		}
		if raw.Event == "" {
			return nil, fmt.Errorf("line %d: event is required", line)
		}

		step := ScriptStep{
			At:       at,
			Event:    raw.Event,
			Media:    raw.Media,
			Title:    raw.Title,
			URL:      raw.URL,
			Duration: math.NaN(),
			Width:    raw.Width,
			Height:   raw.Height,
			Playing:  raw.Playing,
		}
		if raw.Duration != nil {
			step.Duration = *raw.Duration
		}
		if raw.Live {
			step.Duration = math.Inf(1)
		}
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })
	return steps, nil
}

func parseOffset(v any) (time.Duration, error) {
	switch at := v.(type) {
	case nil:
		return 0, nil
	case string:
		return cast.ToDurationE(at)
	default:
		seconds, err := cast.ToFloat64E(at)
		if err != nil {
			return 0, err
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
}

type ScriptMedia struct {
	id      string
	mu      sync.Mutex
	info    classifier.MediaInfo
	playing bool
}

func (m *ScriptMedia) ID() string { return m.id }

func (m *ScriptMedia) Info() classifier.MediaInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

func (m *ScriptMedia) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *ScriptMedia) setPlaying(p bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = p
}

// ScriptPage is a Page driven by a parsed script on a quartz clock. Steps at
// offset zero are applied on construction so they are visible to the
// detector's initial scan.
type ScriptPage struct {
	clock quartz.Clock

	mu         sync.Mutex
	title      string
	url        string
	visibility classifier.Visibility
	media      []*ScriptMedia
	byID       map[string]*ScriptMedia
	subs       map[string][]func(Event)
	added      []func(MediaElement)
	visChanged []func(classifier.Visibility)
	teardown   []func()
	tornDown   bool

	steps []ScriptStep
	next  int
}

func NewScriptPage(steps []ScriptStep, clock quartz.Clock) (*ScriptPage, error) {
	p := &ScriptPage{
		clock:      clock,
		visibility: classifier.Visible,
		byID:       make(map[string]*ScriptMedia),
		subs:       make(map[string][]func(Event)),
		steps:      steps,
	}
	for p.next < len(p.steps) && p.steps[p.next].At <= 0 {
		if err := p.apply(p.steps[p.next]); err != nil {
			return nil, err
		}
		p.next++
	}
	return p, nil
}

// Run plays the remaining steps and tears the page down at the end if the
// script did not.
func (p *ScriptPage) Run(ctx context.Context) error {
	start := p.clock.Now()
	for ; p.next < len(p.steps); p.next++ {
		step := p.steps[p.next]
		if wait := step.At - p.clock.Since(start); wait > 0 {
			timer := p.clock.NewTimer(wait, "script", "step")
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		if err := p.apply(step); err != nil {
			return err
		}
	}
	p.Teardown()
	return nil
}

func (p *ScriptPage) apply(step ScriptStep) error {
	switch step.Event {
	case StepPage:
		p.mu.Lock()
		if step.Title != "" {
			p.title = step.Title
		}
		if step.URL != "" {
			p.url = step.URL
		}
		p.mu.Unlock()
	case StepAdd:
		p.addMedia(step)
	case StepHidden:
		p.setVisibility(classifier.Hidden)
	case StepVisible:
		p.setVisibility(classifier.Visible)
	case StepTeardown:
		p.Teardown()
	default:
		ev := Event(step.Event)
		if !ev.Starts() && !ev.Stops() {
			return fmt.Errorf("unknown script event %q", step.Event)
		}
		p.mu.Lock()
		m, ok := p.byID[step.Media]
		subs := append([]func(Event){}, p.subs[step.Media]...)
		p.mu.Unlock()
		if !ok {
			return fmt.Errorf("event %q for unknown media %q", step.Event, step.Media)
		}
		m.setPlaying(ev.Starts())
		for _, fn := range subs {
			fn(ev)
		}
	}
	return nil
}

func (p *ScriptPage) addMedia(step ScriptStep) {
	m := &ScriptMedia{
		id: step.Media,
		info: classifier.MediaInfo{
			Duration: step.Duration,
			Width:    step.Width,
			Height:   step.Height,
		},
		playing: step.Playing,
	}
	p.mu.Lock()
	if _, exists := p.byID[m.id]; exists {
		p.mu.Unlock()
		return
	}
	p.byID[m.id] = m
	p.media = append(p.media, m)
	added := append([]func(MediaElement){}, p.added...)
	p.mu.Unlock()

	for _, fn := range added {
		fn(m)
	}
}

func (p *ScriptPage) setVisibility(v classifier.Visibility) {
	p.mu.Lock()
	if p.visibility == v {
		p.mu.Unlock()
		return
	}
	p.visibility = v
	fns := append([]func(classifier.Visibility){}, p.visChanged...)
	p.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Teardown runs the teardown callbacks once.
func (p *ScriptPage) Teardown() {
	p.mu.Lock()
	if p.tornDown {
		p.mu.Unlock()
		return
	}
	p.tornDown = true
	fns := append([]func(){}, p.teardown...)
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (p *ScriptPage) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

func (p *ScriptPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *ScriptPage) Visibility() classifier.Visibility {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visibility
}

func (p *ScriptPage) Media() []MediaElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MediaElement, len(p.media))
	for i, m := range p.media {
		out[i] = m
	}
	return out
}

func (p *ScriptPage) Subscribe(el MediaElement, fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[el.ID()] = append(p.subs[el.ID()], fn)
}

func (p *ScriptPage) OnMediaAdded(fn func(MediaElement)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.added = append(p.added, fn)
}

func (p *ScriptPage) OnVisibilityChange(fn func(classifier.Visibility)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visChanged = append(p.visChanged, fn)
}

func (p *ScriptPage) OnTeardown(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardown = append(p.teardown, fn)
}

var _ Page = (*ScriptPage)(nil)
