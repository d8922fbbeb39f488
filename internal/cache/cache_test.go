package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Hour), mr
}

func TestKey(t *testing.T) {
	got := Key(7, "RESERVED", Sort{Field: "deadline", Direction: "asc"})
	want := "campaigns:user:7:status:RESERVED:order:deadline:asc"
	if got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}

	got = Key(7, StatusAll, DefaultSort)
	want = "campaigns:user:7:status:all:order:createdAt:desc"
	if got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestParseSort(t *testing.T) {
	cases := map[string]Sort{
		"deadline,asc":   {Field: "deadline", Direction: "asc"},
		"deadline,desc":  {Field: "deadline", Direction: "desc"},
		"visitDate,ASC":  {Field: "visitDate", Direction: "asc"},
		"deadline":       {Field: "deadline", Direction: "asc"},
		"":               DefaultSort,
		"garbage,asc":    DefaultSort,
		"deadline,weird": {Field: "deadline", Direction: "asc"},
	}
	for in, want := range cases {
		if got := ParseSort(in); got != want {
			t.Fatalf("ParseSort(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestSortColumn_Allowlisted(t *testing.T) {
	if col := (Sort{Field: "visitDate", Direction: "asc"}).Column(); col != "visit_date" {
		t.Fatalf("column = %q", col)
	}
	if col := DefaultSort.Column(); col != "created_at" {
		t.Fatalf("column = %q", col)
	}
}

func TestRedis_GetMissThenHit(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	key := Key(1, StatusAll, DefaultSort)

	if _, hit, err := r.Get(ctx, key); err != nil || hit {
		t.Fatalf("hit = %v, err = %v, want miss", hit, err)
	}

	if err := r.Set(ctx, key, []byte(`[{"id":1}]`), 0); err != nil {
		t.Fatal(err)
	}

	val, hit, err := r.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("hit = %v, err = %v, want hit", hit, err)
	}
	if string(val) != `[{"id":1}]` {
		t.Fatalf("val = %s", val)
	}
}

func TestRedis_SetAppliesTTL(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()
	key := Key(1, StatusAll, DefaultSort)

	if err := r.Set(ctx, key, []byte("[]"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ := r.Get(ctx, key); hit {
		t.Fatal("entry survived its TTL")
	}
}

func TestRedis_EvictAllClearsEveryCampaignKey(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	// Entries for several users: a write by any user clears them all.
	for userID := int64(1); userID <= 3; userID++ {
		if err := r.Set(ctx, Key(userID, StatusAll, DefaultSort), []byte("[]"), 0); err != nil {
			t.Fatal(err)
		}
		if err := r.Set(ctx, Key(userID, "DONE", DefaultSort), []byte("[]"), 0); err != nil {
			t.Fatal(err)
		}
	}
	// Something outside the prefix must survive.
	mr.Set("session:42", "keep")

	if err := r.EvictAll(ctx); err != nil {
		t.Fatal(err)
	}

	for userID := int64(1); userID <= 3; userID++ {
		if _, hit, _ := r.Get(ctx, Key(userID, StatusAll, DefaultSort)); hit {
			t.Fatalf("user %d entry survived eviction", userID)
		}
	}
	if !mr.Exists("session:42") {
		t.Fatal("eviction escaped the campaigns prefix")
	}
}
