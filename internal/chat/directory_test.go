package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

type recordingSearcher struct {
	mu    sync.Mutex
	terms []string
	users []models.User
}

func (r *recordingSearcher) SearchUsers(_ context.Context, term string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terms = append(r.terms, term)
	return r.users, nil
}

func (r *recordingSearcher) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.terms...)
}

func TestDirectory(t *testing.T) {
	t.Run("rapid keystrokes collapse into one request", func(t *testing.T) {
		searcher := &recordingSearcher{users: []models.User{{ID: "u1", Username: "ana"}}}
		done := make(chan []models.User, 1)
		d := NewDirectory(searcher, 20*time.Millisecond, func(users []models.User) {
			done <- users
		}, nil)

		for _, term := range []string{"ana", "anab", "anabe", "anabel"} {
			d.Search(context.Background(), term)
			time.Sleep(2 * time.Millisecond)
		}

		select {
		case users := <-done:
			if len(users) != 1 || users[0].ID != "u1" {
				t.Errorf("unexpected results: %+v", users)
			}
		case <-time.After(time.Second):
			t.Fatal("search never completed")
		}

		calls := searcher.calls()
		if len(calls) != 1 {
			t.Fatalf("expected 1 request, got %d: %v", len(calls), calls)
		}
		if calls[0] != "anabel" {
			t.Errorf("searched %q, want the final term", calls[0])
		}
	})

	t.Run("short terms clear results without a request", func(t *testing.T) {
		searcher := &recordingSearcher{users: []models.User{{ID: "u1"}}}
		updates := make(chan []models.User, 4)
		d := NewDirectory(searcher, time.Millisecond, func(users []models.User) {
			updates <- users
		}, nil)

		d.Search(context.Background(), "ana")
		select {
		case <-updates:
		case <-time.After(time.Second):
			t.Fatal("initial search never completed")
		}
		if len(d.Results()) != 1 {
			t.Fatal("results not populated")
		}

		d.Search(context.Background(), "an")
		select {
		case users := <-updates:
			if users != nil {
				t.Errorf("expected cleared results, got %+v", users)
			}
		case <-time.After(time.Second):
			t.Fatal("clear never delivered")
		}
		if len(d.Results()) != 0 {
			t.Error("results not cleared")
		}
		if calls := searcher.calls(); len(calls) != 1 {
			t.Errorf("short term hit the network: %v", calls)
		}
	})

	t.Run("a newer term supersedes a pending one", func(t *testing.T) {
		searcher := &recordingSearcher{}
		d := NewDirectory(searcher, 10*time.Millisecond, nil, nil)

		d.Search(context.Background(), "first term")
		d.Search(context.Background(), "second term")
		time.Sleep(50 * time.Millisecond)

		calls := searcher.calls()
		if len(calls) != 1 || calls[0] != "second term" {
			t.Errorf("requests = %v, want only the second term", calls)
		}
	})

	t.Run("cancel stops the pending search", func(t *testing.T) {
		searcher := &recordingSearcher{}
		d := NewDirectory(searcher, 10*time.Millisecond, nil, nil)

		d.Search(context.Background(), "pending")
		d.Cancel()
		time.Sleep(50 * time.Millisecond)

		if calls := searcher.calls(); len(calls) != 0 {
			t.Errorf("cancelled search still ran: %v", calls)
		}
	})
}
