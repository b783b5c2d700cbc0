package chat

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// minSearchRunes is the shortest term that triggers a network search.
const minSearchRunes = 3

// UserSearcher is the slice of the REST client the directory needs.
type UserSearcher interface {
	SearchUsers(ctx context.Context, term string) ([]models.User, error)
}

// Directory debounces user search. Each keystroke resets the timer; only
// the term standing when the timer fires reaches the network. Results of
// a search superseded by a newer term are discarded.
type Directory struct {
	api      UserSearcher
	delay    time.Duration
	logger   *log.Logger
	onUpdate func([]models.User)

	mu      sync.Mutex
	timer   *time.Timer
	seq     int
	results []models.User
}

// NewDirectory builds a directory. onUpdate (optional) fires with the
// result set after each completed or cleared search.
func NewDirectory(api UserSearcher, delay time.Duration, onUpdate func([]models.User), logger *log.Logger) *Directory {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Directory{api: api, delay: delay, logger: logger, onUpdate: onUpdate}
}

// Search schedules a debounced search for term. Terms shorter than three
// runes clear the results immediately without touching the network.
func (d *Directory) Search(ctx context.Context, term string) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	seq := d.seq

	if utf8.RuneCountInString(term) < minSearchRunes {
		d.results = nil
		cb := d.onUpdate
		d.mu.Unlock()
		if cb != nil {
			cb(nil)
		}
		return
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.run(ctx, seq, term)
	})
	d.mu.Unlock()
}

func (d *Directory) run(ctx context.Context, seq int, term string) {
	users, err := d.api.SearchUsers(ctx, term)

	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	if err != nil {
		d.mu.Unlock()
		d.logger.Warn("user search failed", "term", term, "error", err)
		return
	}
	d.results = users
	cb := d.onUpdate
	d.mu.Unlock()

	if cb != nil {
		cb(users)
	}
}

// Results returns a snapshot of the latest result set.
func (d *Directory) Results() []models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.User, len(d.results))
	copy(out, d.results)
	return out
}

// Cancel stops any pending search and clears the results.
func (d *Directory) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.results = nil
}
