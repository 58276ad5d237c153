// Package delay models how long a person who is not glued to the phone takes
// to answer a message.
package delay

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness used by the model. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// DefaultSource is safe for concurrent use.
var DefaultSource Source = globalSource{}

// Uniform draws from [lo, hi).
func Uniform(r Source, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// SleepWindow is the hour range [StartHour, EndHour) in which the
// correspondent is asleep. StartHour > EndHour wraps past midnight.
type SleepWindow struct {
	StartHour int
	EndHour   int
}

func (w SleepWindow) Contains(t time.Time) bool {
	h := t.Hour()
	if w.StartHour < w.EndHour {
		return h >= w.StartHour && h < w.EndHour
	}
	return h >= w.StartHour || h < w.EndHour
}

// maxWakeJitterMinutes is inclusive.
const maxWakeJitterMinutes = 30

type band struct {
	cumulative float64
	minSec     float64
	maxSec     float64
}

// Awake reply delays: mostly right away, often a bit distracted, sometimes busy.
var awakeBands = []band{
	{cumulative: 0.5, minSec: 1, maxSec: 5},
	{cumulative: 0.9, minSec: 10, maxSec: 90},
	{cumulative: 1.0, minSec: 120, maxSec: 900},
}

type Model struct {
	window SleepWindow
	loc    *time.Location
	rnd    Source
}

func New(window SleepWindow, loc *time.Location, rnd Source) *Model {
	if loc == nil {
		loc = time.UTC
	}
	if rnd == nil {
		rnd = DefaultSource
	}
	return &Model{window: window, loc: loc, rnd: rnd}
}

func (m *Model) Window() SleepWindow { return m.window }

func (m *Model) Location() *time.Location { return m.loc }

// Sleeping reports whether now falls inside the sleep window in the reference timezone.
func (m *Model) Sleeping(now time.Time) bool {
	return m.window.Contains(now.In(m.loc))
}

// Next returns how long to wait before replying to a message received at now.
// During the sleep window the wait lasts until the window end plus up to
// half an hour; otherwise it is at most 900 seconds.
func (m *Model) Next(now time.Time) time.Duration {
	now = now.In(m.loc)
	if m.window.Contains(now) {
		return m.untilWake(now)
	}
	r := m.rnd.Float64()
	for _, b := range awakeBands {
		if r < b.cumulative {
			return seconds(Uniform(m.rnd, b.minSec, b.maxSec))
		}
	}
	last := awakeBands[len(awakeBands)-1]
	return seconds(Uniform(m.rnd, last.minSec, last.maxSec))
}

func (m *Model) untilWake(now time.Time) time.Duration {
	minute := m.rnd.IntN(maxWakeJitterMinutes + 1)
	wake := time.Date(now.Year(), now.Month(), now.Day(), m.window.EndHour, minute, 0, 0, m.loc)
	if now.After(wake) {
		wake = time.Date(now.Year(), now.Month(), now.Day()+1, m.window.EndHour, minute, 0, 0, m.loc)
	}
	d := wake.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
