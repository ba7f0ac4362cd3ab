package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"social_messenger/internal/domain"
	"social_messenger/internal/repository"
	apperrors "social_messenger/pkg/errors"
	"social_messenger/pkg/logger"
)

type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentView struct {
	ID        uuid.UUID    `json:"id"`
	Author    *Participant `json:"author,omitempty"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}

type PostView struct {
	ID        uuid.UUID     `json:"id"`
	Author    *Participant  `json:"author,omitempty"`
	Content   string        `json:"content"`
	Likes     []uuid.UUID   `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type PostService interface {
	Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*domain.Post, error)
	GetFeed(ctx context.Context, userID uuid.UUID) ([]*PostView, error)
	ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*domain.Post, error)
	Update(ctx context.Context, actorID, postID uuid.UUID, content string) (*domain.Post, error)
	Delete(ctx context.Context, actorID, postID uuid.UUID) error
	AddComment(ctx context.Context, authorID, postID uuid.UUID, content string) (*domain.Comment, error)
	GetComments(ctx context.Context, postID uuid.UUID) ([]CommentView, error)
	DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error
}

type postService struct {
	posts       repository.PostRepository
	friendships repository.FriendshipRepository
	users       repository.UserRepository
	log         logger.Logger
}

func NewPostService(
	posts repository.PostRepository,
	friendships repository.FriendshipRepository,
	users repository.UserRepository,
	log logger.Logger,
) PostService {
	return &postService{posts: posts, friendships: friendships, users: users, log: log}
}

func (s *postService) Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*domain.Post, error) {
	if req.Content == "" {
		return nil, apperrors.ErrValidation
	}

	now := time.Now().UTC()
	post := &domain.Post{
		ID:        uuid.New(),
		UserID:    authorID,
		Content:   req.Content,
		Likes:     []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// GetFeed returns the user's own posts plus their accepted friends' posts,
// newest first, with authors and comments resolved.
func (s *postService) GetFeed(ctx context.Context, userID uuid.UUID) ([]*PostView, error) {
	accepted, err := s.friendships.ListAcceptedForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	authorIDs := []uuid.UUID{userID}
	for _, f := range accepted {
		authorIDs = append(authorIDs, f.OtherParty(userID))
	}

	posts, err := s.posts.ListByAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Participant, len(authors))
	for _, u := range authors {
		byID[u.ID] = &Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Status: u.Status, LastSeen: u.LastSeen}
	}

	views := make([]*PostView, 0, len(posts))
	for _, post := range posts {
		comments, err := s.GetComments(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, &PostView{
			ID:        post.ID,
			Author:    byID[post.UserID],
			Content:   post.Content,
			Likes:     post.Likes,
			Comments:  comments,
			CreatedAt: post.CreatedAt,
			UpdatedAt: post.UpdatedAt,
		})
	}

	return views, nil
}

// ToggleLike adds the user to the like set, or removes them if already there.
func (s *postService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.LikedBy(userID) {
		likes := make([]uuid.UUID, 0, len(post.Likes)-1)
		for _, id := range post.Likes {
			if id != userID {
				likes = append(likes, id)
			}
		}
		post.Likes = likes
	} else {
		post.Likes = append(post.Likes, userID)
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *postService) Update(ctx context.Context, actorID, postID uuid.UUID, content string) (*domain.Post, error) {
	if content == "" {
		return nil, apperrors.ErrValidation
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, apperrors.ErrNotAuthorized
	}

	post.Content = content
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *postService) Delete(ctx context.Context, actorID, postID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return apperrors.ErrNotAuthorized
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	if err := s.posts.DeleteCommentsByPost(ctx, postID); err != nil {
		s.log.Error("Failed to delete post comments", "error", err, "post_id", postID)
	}

	return nil
}

func (s *postService) AddComment(ctx context.Context, authorID, postID uuid.UUID, content string) (*domain.Comment, error) {
	if content == "" {
		return nil, apperrors.ErrValidation
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.posts.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *postService) GetComments(ctx context.Context, postID uuid.UUID) ([]CommentView, error) {
	comments, err := s.posts.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return []CommentView{}, nil
	}

	authorIDs := make([]uuid.UUID, 0, len(comments))
	seen := make(map[uuid.UUID]struct{}, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.UserID]; !ok {
			seen[c.UserID] = struct{}{}
			authorIDs = append(authorIDs, c.UserID)
		}
	}

	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Participant, len(authors))
	for _, u := range authors {
		byID[u.ID] = &Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Status: u.Status, LastSeen: u.LastSeen}
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{
			ID:        c.ID,
			Author:    byID[c.UserID],
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}

	return views, nil
}

func (s *postService) DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error {
	comment, err := s.posts.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actorID {
		return apperrors.ErrNotAuthorized
	}

	return s.posts.DeleteComment(ctx, commentID)
}
