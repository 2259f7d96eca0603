// Package store owns the durable state of conversations and messages. It is
// the only component that touches the database; the orchestrator and title
// generator operate purely on values passed through it.
package store

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatcore/internal/redis"
)

// DefaultListLimit caps GetConversations when the caller passes no limit.
const DefaultListLimit = 50

// Store provides CRUD over conversations and messages on top of
// database/sql. Writes to a single conversation are serialized through a
// per-conversation lock so concurrent turns cannot interleave timestamps or
// double-set a title.
type Store struct {
	db     *sql.DB
	driver string
	cache  *redis.Client

	mu     sync.Mutex
	locks  map[string]*lockEntry
	stamps map[string]time.Time
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// New wraps an open database connection. driver is the name the connection
// was opened with (sqlite3, pgx, mysql); it selects placeholder syntax.
// cache may be nil, in which case listing always hits the database.
func New(db *sql.DB, driver string, cache *redis.Client) *Store {
	return &Store{
		db:     db,
		driver: driver,
		cache:  cache,
		locks:  make(map[string]*lockEntry),
		stamps: make(map[string]time.Time),
	}
}

// lockConversation enters the critical section for one conversation id and
// returns the unlock func. Locks for distinct ids never contend.
func (s *Store) lockConversation(id string) func() {
	s.mu.Lock()
	e, ok := s.locks[id]
	if !ok {
		e = &lockEntry{}
		s.locks[id] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		s.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// nextStamp hands out a strictly increasing timestamp per conversation.
// The bump keeps created_at/updated_at ordering identical to call order
// even when the wall clock resolution cannot tell two writes apart.
func (s *Store) nextStamp(id string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if last, ok := s.stamps[id]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	s.stamps[id] = now
	return now
}

func (s *Store) forgetStamp(id string) {
	s.mu.Lock()
	delete(s.stamps, id)
	s.mu.Unlock()
}

// q rewrites ? placeholders to $N for the postgres driver. sqlite and mysql
// take the query as written.
func (s *Store) q(query string) string {
	if s.driver != "pgx" && s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
