package postgres

import (
	"context"
	"errors"

	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postRepo struct {
	db *pgxpool.Pool
}

func newPostRepo(db *pgxpool.Pool) Post {
	return &postRepo{
		db: db,
	}
}

func (r *postRepo) Create(ctx context.Context, authorID string, content string) (*model.Post, error) {
	var post model.Post
	if err := r.db.QueryRow(
		ctx,
		"INSERT INTO posts(author_id, content) VALUES($1, $2) RETURNING id, author_id, content, created_at",
		authorID,
		content,
	).Scan(
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &post, nil
}

// FindLatestByAuthor returns nil without an error when the author has never posted.
func (r *postRepo) FindLatestByAuthor(ctx context.Context, authorID string) (*model.Post, error) {
	var post model.Post
	err := r.db.QueryRow(
		ctx,
		`SELECT p.id, p.author_id, p.content, p.created_at
		FROM posts p
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
		LIMIT 1`,
		authorID,
	).Scan(
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindRecent(ctx context.Context, limit int) ([]*model.Post, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT p.id, p.author_id, p.content, p.created_at
		FROM posts p
		ORDER BY p.created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*model.Post, 0, limit)
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.Content,
			&post.CreatedAt,
		); err != nil {
			return nil, err
		}

		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
