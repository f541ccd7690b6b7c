// Package cachetest provides a shared behaviour suite for cache.Cache
// implementations.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/MissionControl/internal/port/cache"
)

// Run checks the contract every cache.Cache implementation must honour.
func Run(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "board.v1", []byte(`{"inbox":[]}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "board.v1")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `{"inbox":[]}` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "del", []byte("x"), time.Minute)
		if err := c.Delete(ctx, "del"); err != nil {
			t.Fatal(err)
		}
		if _, found, _ := c.Get(ctx, "del"); found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatalf("Delete of nonexistent key should not error: %v", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "ow", []byte("v1"), time.Minute)
		_ = c.Set(ctx, "ow", []byte("v2"), time.Minute)
		val, found, err := c.Get(ctx, "ow")
		if err != nil || !found {
			t.Fatalf("expected hit after overwrite, err=%v", err)
		}
		if string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %s", val)
		}
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		type card struct{ Title string }
		if err := cache.SetJSON(ctx, c, "card", card{Title: "deploy"}, time.Minute); err != nil {
			t.Fatal(err)
		}
		var got card
		ok, err := cache.GetJSON(ctx, c, "card", &got)
		if err != nil || !ok || got.Title != "deploy" {
			t.Fatalf("GetJSON = %v, %v, %+v", ok, err, got)
		}
	})
}
