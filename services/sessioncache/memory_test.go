package sessioncache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/session"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cache := NewMemory(5 * time.Minute).(*memoryCache)
	cache.nowFunc = func() time.Time { return now }

	principal := auth.Principal{ID: "u1", Name: "Awa", Role: auth.RoleStudent}

	if _, err := cache.Get(ctx, "tok1"); !errors.Is(err, session.ErrCacheMiss) {
		t.Fatalf("Get() error = %v, want ErrCacheMiss", err)
	}

	if err := cache.Save(ctx, "tok1", principal); err != nil {
		t.Fatalf("Save(): %v", err)
	}

	got, err := cache.Get(ctx, "tok1")
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	assert.Equal(t, principal, got)

	// entries expire after the TTL
	now = now.Add(5*time.Minute + time.Second)
	if _, err = cache.Get(ctx, "tok1"); !errors.Is(err, session.ErrCacheMiss) {
		t.Errorf("Get() after TTL error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(5 * time.Minute)

	_ = cache.Save(ctx, "tok1", auth.Principal{ID: "u1"})
	if err := cache.Delete(ctx, "tok1"); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err := cache.Get(ctx, "tok1"); !errors.Is(err, session.ErrCacheMiss) {
		t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
	}

	// deleting a missing entry is not an error
	if err := cache.Delete(ctx, "ghost"); err != nil {
		t.Errorf("Delete(ghost): %v", err)
	}
}
