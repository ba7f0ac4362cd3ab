package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"social_messenger/internal/domain"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uuid.UUID) ([]*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetCommentByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	DeleteCommentsByPost(ctx context.Context, postID uuid.UUID) error
}

type postRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewPostRepository(db *pgxpool.Pool, log logger.Logger) PostRepository {
	return &postRepository{db: db, log: log}
}

const postColumns = `id, user_id, content, likes, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, user_id, content, likes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		post.ID, post.UserID, post.Content, post.Likes, post.CreatedAt, post.UpdatedAt,
	).Scan(&post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create post", "error", err, "user_id", post.UserID)
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post := &domain.Post{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.UserID, &post.Content, &post.Likes, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uuid.UUID) ([]*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = ANY($1) ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, authorIDs)
	if err != nil {
		r.log.Error("Failed to list posts", "error", err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		post := &domain.Post{}
		err := rows.Scan(&post.ID, &post.UserID, &post.Content, &post.Likes, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET content = $2, likes = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, post.ID, post.Content, post.Likes).Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		r.log.Error("Failed to update post", "error", err, "post_id", post.ID)
		return fmt.Errorf("failed to update post: %w", err)
	}

	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete post", "error", err, "post_id", id)
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *postRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		comment.ID, comment.PostID, comment.UserID, comment.Content, comment.CreatedAt,
	).Scan(&comment.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create comment", "error", err, "post_id", comment.PostID)
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

func (r *postRepository) GetCommentByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	query := `SELECT id, post_id, user_id, content, created_at FROM comments WHERE id = $1`

	comment := &domain.Comment{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&comment.ID, &comment.PostID, &comment.UserID, &comment.Content, &comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

func (r *postRepository) ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error) {
	query := `SELECT id, post_id, user_id, content, created_at FROM comments WHERE post_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		r.log.Error("Failed to list comments", "error", err, "post_id", postID)
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		comment := &domain.Comment{}
		err := rows.Scan(&comment.ID, &comment.PostID, &comment.UserID, &comment.Content, &comment.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

func (r *postRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete comment", "error", err, "comment_id", id)
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *postRepository) DeleteCommentsByPost(ctx context.Context, postID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		r.log.Error("Failed to delete post comments", "error", err, "post_id", postID)
		return fmt.Errorf("failed to delete post comments: %w", err)
	}

	return nil
}
