// blog/models.go
package blog

import (
	"time"
)

// Post carries the author's handle and the group's title/slug alongside the
// foreign keys so list pages render without extra lookups.
type Post struct {
	ID         int64     `json:"id" db:"id"`
	Text       string    `json:"text" db:"text"`
	AuthorID   string    `json:"author_id" db:"author_id"`
	Author     string    `json:"author" db:"author"`
	GroupID    *int64    `json:"group_id" db:"group_id"`
	GroupTitle string    `json:"group_title" db:"group_title"`
	GroupSlug  string    `json:"group_slug" db:"group_slug"`
	Image      string    `json:"image" db:"image"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Group is a named category posts may optionally belong to. The slug is
// assigned once at creation and never edited.
type Group struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"post_id" db:"post_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Author    string    `json:"author" db:"author"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Follow is a directed subscription edge. The (user, author) pair is unique
// at the storage layer.
type Follow struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
