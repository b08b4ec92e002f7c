package services

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestVoteCreateAndRemove(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.alice.ID, "Votable", "content", true)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.votes.Create(ctx, f.bob.ID, post.ID); err != nil {
		t.Fatalf("create vote: %v", err)
	}
	if err := f.votes.Create(ctx, f.bob.ID, post.ID); !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("got %v, want ErrDuplicateVote", err)
	}

	if err := f.votes.Remove(ctx, f.bob.ID, post.ID); err != nil {
		t.Fatalf("remove vote: %v", err)
	}
	if err := f.votes.Remove(ctx, f.bob.ID, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound for absent vote", err)
	}
}

func TestVoteOnMissingPost(t *testing.T) {
	f := newPostFixture(t)

	if err := f.votes.Create(context.Background(), f.bob.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// Concurrent duplicate votes must race at the primary key, not at an
// application-level check, so exactly one wins.
func TestVoteConcurrentDuplicates(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.alice.ID, "Contended", "content", true)
	if err != nil {
		t.Fatal(err)
	}

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.votes.Create(ctx, f.bob.ID, post.ID)
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateVote):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != attempts-1 {
		t.Fatalf("ok=%d dup=%d, want exactly one success", ok, dup)
	}

	var stored int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM votes WHERE post_id = ?", post.ID).Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if stored != 1 {
		t.Fatalf("stored %d votes, want 1", stored)
	}
}
