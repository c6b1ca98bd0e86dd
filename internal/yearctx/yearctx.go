// Package yearctx holds the per-identity Selected Academic Year. The value
// persists across sessions; a stale or malformed persisted value silently
// falls back to the current year. Writes win last: handlers read the
// selection at request time, so a newer selection supersedes results keyed
// to an older one.
package yearctx

import (
	"context"
	"errors"
	"time"

	"brightsteps/portal/internal/academicyear"
)

var ErrYearOutOfWindow = errors.New("yearctx: year outside the selectable window")

// Store persists one selected-year label per identity. Load returns
// ErrNotFound when nothing was persisted.
type Store interface {
	Load(ctx context.Context, userID string) (string, error)
	Save(ctx context.Context, userID, year string) error
}

var ErrNotFound = errors.New("yearctx: no persisted selection")

// Notifier broadcasts a selection change so dependent views re-run their
// scoped queries instead of polling.
type Notifier interface {
	YearChanged(ctx context.Context, userID string, year academicyear.Year) error
}

type Manager struct {
	store        Store
	notifier     Notifier
	yearsBack    int
	yearsForward int
	now          func() time.Time
}

func NewManager(store Store, notifier Notifier, yearsBack, yearsForward int) *Manager {
	return &Manager{
		store:        store,
		notifier:     notifier,
		yearsBack:    yearsBack,
		yearsForward: yearsForward,
		now:          time.Now,
	}
}

// WithClock fixes the clock, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Window enumerates the selectable years.
func (m *Manager) Window() []academicyear.Year {
	return academicyear.Window(m.yearsBack, m.yearsForward, m.now())
}

// Current is the academic year in effect right now.
func (m *Manager) Current() academicyear.Year {
	return academicyear.Current(m.now())
}

// Selected resolves the identity's selection: the persisted value when it is
// still a member of the window, otherwise the current year. Missing or
// malformed persisted data takes the default path; it is never an error.
func (m *Manager) Selected(ctx context.Context, userID string) academicyear.Year {
	persisted, err := m.store.Load(ctx, userID)
	if err != nil {
		return m.Current()
	}
	year := academicyear.Year(persisted)
	if !year.Valid() || !m.inWindow(year) {
		return m.Current()
	}
	return year
}

// Select replaces the selection. Years outside the window are rejected;
// relaxing this is a policy choice this deployment does not take.
func (m *Manager) Select(ctx context.Context, userID string, year academicyear.Year) error {
	if !year.Valid() || !m.inWindow(year) {
		return ErrYearOutOfWindow
	}
	if err := m.store.Save(ctx, userID, string(year)); err != nil {
		return err
	}
	if m.notifier != nil {
		_ = m.notifier.YearChanged(ctx, userID, year)
	}
	return nil
}

// Reset selects the current year. Calling it twice is the same as once.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	return m.Select(ctx, userID, m.Current())
}

func (m *Manager) inWindow(year academicyear.Year) bool {
	for _, candidate := range m.Window() {
		if candidate == year {
			return true
		}
	}
	return false
}
