// blog/store.go
package blog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups for an unknown id, slug, or username.
var ErrNotFound = errors.New("not found")

// Store is the query surface the handlers depend on. *Database implements it
// against Postgres; tests use an in-memory fake.
type Store interface {
	CreatePost(ctx context.Context, post *Post) error
	UpdatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id int64) (*Post, error)
	DeletePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context) ([]Post, error)
	ListPostsByGroup(ctx context.Context, groupID int64) ([]Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]Post, error)
	ListFeedPosts(ctx context.Context, userID string) ([]Post, error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int, error)

	CreateGroup(ctx context.Context, group *Group) error
	DeleteGroup(ctx context.Context, id int64) error
	GetGroupBySlug(ctx context.Context, slug string) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)

	CreateComment(ctx context.Context, comment *Comment) error
	DeleteComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context) ([]Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64) ([]Comment, error)

	CreateFollow(ctx context.Context, userID, authorID string) error
	DeleteFollow(ctx context.Context, userID, authorID string) error
	FollowExists(ctx context.Context, userID, authorID string) (bool, error)

	SaveUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}
