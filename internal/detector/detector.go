package detector

import (
	"context"
	"net/url"
	"sync"
	"time"
	"watchtime/internal/classifier"
	"watchtime/internal/models"
	"watchtime/internal/providers"

	"github.com/coder/quartz"
	"go.uber.org/atomic"
)

const (
	DefaultSyncInterval = 5 * time.Second
	tickInterval        = time.Second

	// localDomain is reported for pages without a host, such as file URLs.
	localDomain = "local"
)

type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

type DetectorInterface interface {
	Start(ctx context.Context)
	Discover(el MediaElement)
	Teardown()
	Stop()
	State() State
	Accumulated() int64
	Halted() bool
}

// Detector turns media events on one page into watch-time reports. Seconds
// accrue on a one second tick while anything plays, and are flushed
// periodically, when playback stops, when visibility changes and on teardown.
type Detector struct {
	page         Page
	sender       Sender
	clock        quartz.Clock
	logger       providers.Logger
	syncInterval time.Duration

	mu          sync.Mutex
	ctx         context.Context
	state       State
	accumulated int64
	lastFlush   time.Time
	visibility  classifier.Visibility
	attached    map[string]bool
	order       []MediaElement
	active      map[string]bool
	lastActive  MediaElement
	stopTick    context.CancelFunc
	generation  uint64
	halted      *atomic.Bool
}

func NewDetector(page Page, sender Sender, clock quartz.Clock, logger providers.Logger, syncInterval time.Duration) *Detector {
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}
	return &Detector{
		page:         page,
		sender:       sender,
		clock:        clock,
		logger:       logger,
		syncInterval: syncInterval,
		ctx:          context.Background(),
		attached:     make(map[string]bool),
		active:       make(map[string]bool),
		halted:       atomic.NewBool(false),
	}
}

// Start scans the page for existing media and subscribes to later changes.
func (d *Detector) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.visibility = d.page.Visibility()
	d.lastFlush = d.clock.Now()
	d.mu.Unlock()

	for _, el := range d.page.Media() {
		d.Discover(el)
	}
	d.page.OnMediaAdded(d.Discover)
	d.page.OnVisibilityChange(d.visibilityChanged)
	d.page.OnTeardown(d.Teardown)
}

// Discover attaches to el once. An element that is already playing joins
// the active set straight away.
func (d *Detector) Discover(el MediaElement) {
	if el == nil || d.halted.Load() {
		return
	}
	d.mu.Lock()
	if d.attached[el.ID()] {
		d.mu.Unlock()
		return
	}
	d.attached[el.ID()] = true
	d.order = append(d.order, el)
	d.mu.Unlock()

	d.page.Subscribe(el, func(ev Event) { d.mediaEvent(el, ev) })
	if el.Playing() {
		d.mediaEvent(el, EventPlaying)
	}
}

func (d *Detector) mediaEvent(el MediaElement, ev Event) {
	if d.halted.Load() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case ev.Starts():
		d.active[el.ID()] = true
		d.lastActive = el
		if d.state == Idle {
			d.state = Active
			d.startTickLocked()
		}
	case ev.Stops():
		if !d.active[el.ID()] {
			return
		}
		delete(d.active, el.ID())
		d.lastActive = el
		if len(d.active) == 0 && d.state == Active {
			d.state = Idle
			d.stopTickLocked()
			d.flushLocked(d.visibility)
		}
	}
}

// visibilityChanged flushes what accrued under the old visibility before
// switching, so seconds are never attributed to the wrong category.
func (d *Detector) visibilityChanged(v classifier.Visibility) {
	if d.halted.Load() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if v == d.visibility {
		return
	}
	d.flushLocked(d.visibility)
	d.visibility = v
}

// Teardown makes a best-effort final flush and stops the detector.
func (d *Detector) Teardown() {
	if d.halted.Load() {
		return
	}
	d.mu.Lock()
	d.flushLocked(d.visibility)
	d.mu.Unlock()
	d.Stop()
}

func (d *Detector) Stop() {
	d.halted.Store(true)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTickLocked()
	d.state = Idle
}

func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detector) Accumulated() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accumulated
}

func (d *Detector) Halted() bool {
	return d.halted.Load()
}

func (d *Detector) startTickLocked() {
	d.generation++
	gen := d.generation
	ctx, cancel := context.WithCancel(d.ctx)
	d.stopTick = cancel
	d.clock.TickerFunc(ctx, tickInterval, func() error {
		d.tick(gen)
		return nil
	}, "detector", "tick")
}

func (d *Detector) stopTickLocked() {
	if d.stopTick != nil {
		d.stopTick()
		d.stopTick = nil
	}
	d.generation++
}

func (d *Detector) tick(gen uint64) {
	if d.halted.Load() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	// a tick from a ticker that was already stopped
	if gen != d.generation || d.state != Active {
		return
	}
	d.accumulated++
	if d.clock.Since(d.lastFlush) >= d.syncInterval {
		d.flushLocked(d.visibility)
	}
}

// flushLocked resets the accumulator before delivery. A failed delivery
// halts the detector rather than carrying the seconds forward.
func (d *Detector) flushLocked(v classifier.Visibility) {
	if d.accumulated <= 0 || d.halted.Load() {
		return
	}
	report := &models.Report{
		Action:   models.ActionLogTime,
		Seconds:  d.accumulated,
		Domain:   d.domain(),
		Title:    d.page.Title(),
		Category: classifier.Classify(d.classifiedMediaLocked(), v),
	}
	d.accumulated = 0
	d.lastFlush = d.clock.Now()

	if err := d.sender.Send(d.ctx, report); err != nil {
		d.logger.Infof(providers.TypeApp, "Sender unavailable, stopping detector for %s: %s", report.Domain, err)
		d.halted.Store(true)
		d.stopTickLocked()
		d.state = Idle
		return
	}
	d.logger.Debugf(providers.TypeApp, "Synced %ds for %s as %s", report.Seconds, report.Domain, report.Category)
}

// classifiedMediaLocked picks the first still-active element in discovery
// order, falling back to the element that stopped most recently.
func (d *Detector) classifiedMediaLocked() *classifier.MediaInfo {
	var el MediaElement
	for _, candidate := range d.order {
		if d.active[candidate.ID()] {
			el = candidate
			break
		}
	}
	if el == nil {
		el = d.lastActive
	}
	if el == nil {
		return nil
	}
	info := el.Info()
	info.PageURL = d.page.URL()
	return &info
}

func (d *Detector) domain() string {
	u, err := url.Parse(d.page.URL())
	if err != nil || u.Hostname() == "" {
		return localDomain
	}
	return u.Hostname()
}

var _ DetectorInterface = (*Detector)(nil)
