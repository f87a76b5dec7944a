package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aerofans/apiserver/types"
)

// ReplyRepository handles persistence for replies. Lookups and mutations are
// always qualified by both the reply id and its parent post id.
type ReplyRepository struct {
	db *sql.DB
}

func NewReplyRepository(db *sql.DB) *ReplyRepository {
	return &ReplyRepository{db: db}
}

// Create inserts a reply under the given post. The parent is not pre-checked;
// a missing post trips the foreign key constraint and comes back as
// ErrNotFound.
func (r *ReplyRepository) Create(ctx context.Context, postID, authorID int, text string) (types.Reply, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO replies (post_id, author, text, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, post_id, author, text, created_at
		)
		SELECT inserted.id, inserted.post_id, inserted.author, users.username, inserted.text, inserted.created_at
		FROM inserted
		INNER JOIN users ON inserted.author = users.id`
	var reply types.Reply
	err := r.db.QueryRowContext(ctx, query, postID, authorID, text, time.Now()).Scan(
		&reply.ID,
		&reply.PostID,
		&reply.Author,
		&reply.Username,
		&reply.Text,
		&reply.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.Reply{}, ErrNotFound
		}
		return types.Reply{}, err
	}
	return reply, nil
}

func (r *ReplyRepository) ListByPost(ctx context.Context, postID int) ([]types.Reply, error) {
	const query = `
		SELECT replies.id, replies.post_id, replies.author, users.username, replies.text, replies.created_at
		FROM replies
		INNER JOIN users ON replies.author = users.id
		WHERE replies.post_id = $1
		ORDER BY replies.id`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := make([]types.Reply, 0)
	for rows.Next() {
		var reply types.Reply
		if err := rows.Scan(
			&reply.ID,
			&reply.PostID,
			&reply.Author,
			&reply.Username,
			&reply.Text,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return replies, nil
}

// Get returns the reply matching both id and postID. A reply that exists
// under a different post is not found.
func (r *ReplyRepository) Get(ctx context.Context, id, postID int) (types.Reply, error) {
	const query = `
		SELECT replies.id, replies.post_id, replies.author, users.username, replies.text, replies.created_at
		FROM replies
		INNER JOIN users ON replies.author = users.id
		WHERE replies.id = $1 AND replies.post_id = $2`
	var reply types.Reply
	err := r.db.QueryRowContext(ctx, query, id, postID).Scan(
		&reply.ID,
		&reply.PostID,
		&reply.Author,
		&reply.Username,
		&reply.Text,
		&reply.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Reply{}, ErrNotFound
		}
		return types.Reply{}, err
	}
	return reply, nil
}

func (r *ReplyRepository) UpdateText(ctx context.Context, id, postID int, text string) (types.Reply, error) {
	const query = `
		WITH updated AS (
			UPDATE replies SET text = $1
			WHERE id = $2 AND post_id = $3
			RETURNING id, post_id, author, text, created_at
		)
		SELECT updated.id, updated.post_id, updated.author, users.username, updated.text, updated.created_at
		FROM updated
		INNER JOIN users ON updated.author = users.id`
	var reply types.Reply
	err := r.db.QueryRowContext(ctx, query, text, id, postID).Scan(
		&reply.ID,
		&reply.PostID,
		&reply.Author,
		&reply.Username,
		&reply.Text,
		&reply.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Reply{}, ErrNotFound
		}
		return types.Reply{}, err
	}
	return reply, nil
}

func (r *ReplyRepository) Delete(ctx context.Context, id, postID int) error {
	const query = `DELETE FROM replies WHERE id = $1 AND post_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, postID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
