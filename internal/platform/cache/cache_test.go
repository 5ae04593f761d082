package cache

import (
	"context"
	"testing"
	"time"
)

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	if err := c.Set(ctx, "schedule:doc-1", map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var dst map[string]string
	hit, err := c.Get(ctx, "schedule:doc-1", &dst)
	if err != nil || hit {
		t.Errorf("expected miss, got hit=%v err=%v", hit, err)
	}
	if err := c.Bump(ctx, "schedule-version:doc-1"); err != nil {
		t.Fatal(err)
	}
	if v, err := c.Version(ctx, "schedule-version:doc-1"); err != nil || v != 0 {
		t.Errorf("expected zero version, got %d err=%v", v, err)
	}
}

func TestRedisCache_Key(t *testing.T) {
	c := NewRedisCache(nil, "medconnect:")
	if got := c.key("schedule:doc-1"); got != "medconnect:schedule:doc-1" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}
