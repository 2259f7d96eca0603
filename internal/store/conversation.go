package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"chatcore/internal/fault"
	"chatcore/internal/models"

	"github.com/google/uuid"
)

// CreateConversation persists a new conversation. An empty title becomes
// the placeholder so TouchConversation can still set a generated title on
// the first completed turn.
func (s *Store) CreateConversation(ctx context.Context, title, provider, model string) (*models.Conversation, error) {
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)
	if provider == "" {
		return nil, &fault.ValidationError{Field: "provider", Reason: "must not be empty"}
	}
	if model == "" {
		return nil, &fault.ValidationError{Field: "model", Reason: "must not be empty"}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.PlaceholderTitle
	}

	id := uuid.NewString()
	now := s.nextStamp(id)
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO conversations (id, title, provider, model, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		id, title, provider, model, now, now,
	)
	if err != nil {
		return nil, storageErr("create conversation", err)
	}
	s.invalidateListing(ctx)
	return &models.Conversation{
		ID:        id,
		Title:     title,
		Provider:  provider,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetConversations returns recent conversations ordered by last activity.
// limit <= 0 applies the default cap.
func (s *Store) GetConversations(ctx context.Context, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	// The version must be observed before the database query so a mutation
	// committing in between marks this read's cache write as stale.
	useCache := s.cache != nil && limit == DefaultListLimit
	var version int64
	if useCache {
		version, useCache = s.listingVersion(ctx)
	}
	if useCache {
		if cached, ok := s.cachedListing(ctx, version); ok {
			return cached, nil
		}
	}

	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, title, provider, model, created_at, updated_at FROM conversations ORDER BY updated_at DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, storageErr("list conversations", err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.Provider, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storageErr("scan conversation", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list conversations", err)
	}
	if useCache {
		s.storeListing(ctx, version, conversations)
	}
	return conversations, nil
}

// GetConversation returns one conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, title, provider, model, created_at, updated_at FROM conversations WHERE id = ?`),
		id,
	).Scan(&c.ID, &c.Title, &c.Provider, &c.Model, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &fault.NotFoundError{Entity: "conversation", ID: id}
		}
		return nil, storageErr("get conversation", err)
	}
	return &c, nil
}

// UpdateConversationTitle overwrites the title unconditionally (rename).
// The overwrite is idempotent; renaming also counts as activity.
func (s *Store) UpdateConversationTitle(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &fault.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	unlock := s.lockConversation(id)
	defer unlock()

	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`),
		title, s.nextStamp(id), id,
	)
	if err != nil {
		return storageErr("update conversation title", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("update conversation title", err)
	}
	if affected == 0 {
		return &fault.NotFoundError{Entity: "conversation", ID: id}
	}
	s.invalidateListing(ctx)
	return nil
}

// DeleteConversation removes a conversation and all of its messages in one
// transaction. A second delete of the same id reports not found.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	unlock := s.lockConversation(id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin delete conversation", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, s.q(`DELETE FROM messages WHERE conversation_id = ?`), id); err != nil {
		return storageErr("delete messages", err)
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, s.q(`DELETE FROM conversations WHERE id = ?`), id)
	if err != nil {
		return storageErr("delete conversation", err)
	}
	affected, aerr := res.RowsAffected()
	if aerr != nil {
		err = aerr
		return storageErr("delete conversation", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return &fault.NotFoundError{Entity: "conversation", ID: id}
	}
	if err = tx.Commit(); err != nil {
		return storageErr("commit delete conversation", err)
	}
	s.forgetStamp(id)
	s.invalidateListing(ctx)
	return nil
}

// TouchConversation advances updated_at to now. A non-empty title candidate
// only takes effect while the current title is still the placeholder, so a
// generated title is set at most once through this path.
func (s *Store) TouchConversation(ctx context.Context, id, title string) error {
	unlock := s.lockConversation(id)
	defer unlock()

	now := s.nextStamp(id)
	var (
		res sql.Result
		err error
	)
	if strings.TrimSpace(title) != "" {
		res, err = s.db.ExecContext(ctx,
			s.q(`UPDATE conversations SET updated_at = ?, title = CASE WHEN title = '' OR title = ? THEN ? ELSE title END WHERE id = ?`),
			now, models.PlaceholderTitle, strings.TrimSpace(title), id,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			s.q(`UPDATE conversations SET updated_at = ? WHERE id = ?`),
			now, id,
		)
	}
	if err != nil {
		return storageErr("touch conversation", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("touch conversation", err)
	}
	if affected == 0 {
		return &fault.NotFoundError{Entity: "conversation", ID: id}
	}
	s.invalidateListing(ctx)
	return nil
}

// conversationExists is the shared existence probe for message operations.
func (s *Store) conversationExists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM conversations WHERE id = ?`), id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &fault.NotFoundError{Entity: "conversation", ID: id}
		}
		return storageErr(fmt.Sprintf("check conversation %s", id), err)
	}
	return nil
}
