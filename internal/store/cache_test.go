package store

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"

	"chatcore/internal/config"
	"chatcore/internal/redis"
	"chatcore/internal/storage"
)

func newRedisBackedStore(t *testing.T) (*Store, func()) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed store tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}

	client, err := redis.NewClient(config.RedisConfig{Enabled: true, Host: host, Port: port})
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	db, err := storage.Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	st := New(db, "sqlite3", client)
	cleanup := func() {
		_ = client.Del(context.Background(), listingKey, listingVerKey)
		client.Close()
		db.Close()
	}
	return st, cleanup
}

func currentVersion(t *testing.T, st *Store) int64 {
	t.Helper()
	v, ok := st.listingVersion(context.Background())
	if !ok {
		t.Fatalf("listing version unavailable")
	}
	return v
}

func TestListingCacheHitAndInvalidate(t *testing.T) {
	st, cleanup := newRedisBackedStore(t)
	defer cleanup()
	ctx := context.Background()

	first, err := st.CreateConversation(ctx, "cached", "mock", "m")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// First default-limit listing populates the cache.
	list, err := st.GetConversations(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}
	if _, ok := st.cachedListing(ctx, currentVersion(t, st)); !ok {
		t.Fatalf("expected listing cache to be populated")
	}

	// Any conversation mutation drops the cached listing.
	before := currentVersion(t, st)
	if err := st.TouchConversation(ctx, first.ID, ""); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if after := currentVersion(t, st); after <= before {
		t.Fatalf("mutation must bump the listing version: %d -> %d", before, after)
	}
	if _, ok := st.cachedListing(ctx, currentVersion(t, st)); ok {
		t.Fatalf("expected mutation to invalidate the listing cache")
	}

	// A stale cache can never resurrect a deleted conversation.
	if _, err := st.GetConversations(ctx, 0); err != nil {
		t.Fatalf("relist: %v", err)
	}
	if err := st.DeleteConversation(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err = st.GetConversations(ctx, 0)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("deleted conversation still listed: %#v", list)
	}
}

func TestLateListingWriteFromBeforeMutationIsIgnored(t *testing.T) {
	st, cleanup := newRedisBackedStore(t)
	defer cleanup()
	ctx := context.Background()

	touched, err := st.CreateConversation(ctx, "older", "mock", "m")
	if err != nil {
		t.Fatalf("create older: %v", err)
	}
	if _, err := st.CreateConversation(ctx, "newer", "mock", "m"); err != nil {
		t.Fatalf("create newer: %v", err)
	}

	// A reader observes the version, queries, and is about to write back.
	observed := currentVersion(t, st)
	preMutation, err := st.GetConversations(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if preMutation[0].ID == touched.ID {
		t.Fatalf("setup: touched conversation should not lead yet")
	}

	// A mutation commits and invalidates before that write lands.
	if err := st.TouchConversation(ctx, touched.ID, ""); err != nil {
		t.Fatalf("touch: %v", err)
	}

	// The delayed write now lands, carrying the pre-mutation ordering.
	st.storeListing(ctx, observed, preMutation)

	// The stale payload must not be served.
	if _, ok := st.cachedListing(ctx, currentVersion(t, st)); ok {
		t.Fatalf("listing written against an old version was served")
	}
	list, err := st.GetConversations(ctx, 0)
	if err != nil {
		t.Fatalf("list after touch: %v", err)
	}
	if list[0].ID != touched.ID {
		t.Fatalf("touched conversation must lead the listing, got %s", list[0].ID)
	}
}

func TestAdHocLimitBypassesCache(t *testing.T) {
	st, cleanup := newRedisBackedStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := st.CreateConversation(ctx, "one", "mock", "m"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.GetConversations(ctx, 7); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, ok := st.cachedListing(ctx, currentVersion(t, st)); ok {
		t.Fatalf("ad-hoc limit must not populate the default cache")
	}
}
