package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aerofans/apiserver/types"
)

// PostRepository handles persistence for posts. Every read joins users so
// callers get the author's username alongside the row.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, authorID int, text string) (types.Post, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO posts (author, text, created_at)
			VALUES ($1, $2, $3)
			RETURNING id, author, text, created_at
		)
		SELECT inserted.id, inserted.author, users.username, inserted.text, inserted.created_at
		FROM inserted
		INNER JOIN users ON inserted.author = users.id`
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, authorID, text, time.Now()).Scan(
		&post.ID,
		&post.Author,
		&post.Username,
		&post.Text,
		&post.CreatedAt,
	)
	if err != nil {
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]types.Post, error) {
	const query = `
		SELECT posts.id, posts.author, users.username, posts.text, posts.created_at
		FROM posts
		INNER JOIN users ON posts.author = users.id
		ORDER BY posts.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]types.Post, 0)
	for rows.Next() {
		var post types.Post
		if err := rows.Scan(
			&post.ID,
			&post.Author,
			&post.Username,
			&post.Text,
			&post.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *PostRepository) Get(ctx context.Context, id int) (types.Post, error) {
	const query = `
		SELECT posts.id, posts.author, users.username, posts.text, posts.created_at
		FROM posts
		INNER JOIN users ON posts.author = users.id
		WHERE posts.id = $1`
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.Author,
		&post.Username,
		&post.Text,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

// UpdateText mutates the post text in a single statement and returns the
// refreshed row joined with the author's username.
func (r *PostRepository) UpdateText(ctx context.Context, id int, text string) (types.Post, error) {
	const query = `
		WITH updated AS (
			UPDATE posts SET text = $1
			WHERE id = $2
			RETURNING id, author, text, created_at
		)
		SELECT updated.id, updated.author, users.username, updated.text, updated.created_at
		FROM updated
		INNER JOIN users ON updated.author = users.id`
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, text, id).Scan(
		&post.ID,
		&post.Author,
		&post.Username,
		&post.Text,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM posts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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
