package session

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

func testState() view.State {
	return view.State{
		Expanded:    map[string]bool{"Region: North": true},
		Sort:        tree.SortValueDesc,
		ManualOrder: true,
		Orders:      map[string][]string{"": {"Region: South", "Region: North"}},
	}
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := New(testState(), "hash-1", DefaultTTL)
			if sess.ID == "" {
				t.Fatal("New() produced empty ID")
			}
			if err := store.Set(ctx, sess); err != nil {
				t.Fatalf("Set() error: %v", err)
			}

			got, err := store.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got == nil {
				t.Fatal("Get() returned nil for stored session")
			}
			if got.TreeHash != "hash-1" {
				t.Errorf("TreeHash = %q, want %q", got.TreeHash, "hash-1")
			}
			if !got.State.Expanded["Region: North"] {
				t.Error("expanded state lost in round trip")
			}
			if got.State.Sort != tree.SortValueDesc {
				t.Errorf("Sort = %q, want %q", got.State.Sort, tree.SortValueDesc)
			}
			if len(got.State.Orders[""]) != 2 {
				t.Errorf("Orders[\"\"] = %v, want 2 entries", got.State.Orders[""])
			}

			if err := store.Delete(ctx, sess.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			got, err = store.Get(ctx, sess.ID)
			if err != nil || got != nil {
				t.Errorf("Get() after delete = (%v, %v), want (nil, nil)", got, err)
			}
		})
	}
}

func TestStoreMissingSession(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(context.Background(), "nope")
			if err != nil || got != nil {
				t.Errorf("Get(missing) = (%v, %v), want (nil, nil)", got, err)
			}
			if err := store.Delete(context.Background(), "nope"); err != nil {
				t.Errorf("Delete(missing) error: %v", err)
			}
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := New(testState(), "h", -time.Minute)
			if err := store.Set(ctx, sess); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			got, err := store.Get(ctx, sess.ID)
			if err != nil || got != nil {
				t.Errorf("Get(expired) = (%v, %v), want (nil, nil)", got, err)
			}
		})
	}
}

func TestCleanup(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			live := New(testState(), "h", DefaultTTL)
			dead := New(testState(), "h", -time.Minute)
			if err := store.Set(ctx, live); err != nil {
				t.Fatal(err)
			}
			if err := store.Set(ctx, dead); err != nil {
				t.Fatal(err)
			}
			if err := store.Cleanup(ctx); err != nil {
				t.Fatalf("Cleanup() error: %v", err)
			}
			if got, _ := store.Get(ctx, live.ID); got == nil {
				t.Error("Cleanup() removed a live session")
			}
		})
	}
}

func TestTouchExtends(t *testing.T) {
	sess := New(testState(), "h", time.Minute)
	before := sess.ExpiresAt
	time.Sleep(time.Millisecond)
	sess.Touch(time.Hour)
	if !sess.ExpiresAt.After(before) {
		t.Error("Touch() did not extend expiry")
	}
	if sess.IsExpired() {
		t.Error("touched session reports expired")
	}
}
