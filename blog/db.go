// blog/db.go
package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned when an insert hits a uniqueness constraint the
// caller surfaces to the user (group slug, username, email).
var ErrDuplicate = errors.New("already exists")

const schema = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    hash BYTEA NOT NULL,
    admin BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS groups (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS posts (
    id BIGSERIAL PRIMARY KEY,
    text TEXT NOT NULL,
    author_id UUID NOT NULL,
    group_id BIGINT,
    image TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT fk_post_author
        FOREIGN KEY(author_id) REFERENCES users(id) ON DELETE CASCADE,
    CONSTRAINT fk_post_group
        FOREIGN KEY(group_id) REFERENCES groups(id) ON DELETE SET NULL
);
CREATE TABLE IF NOT EXISTS comments (
    id BIGSERIAL PRIMARY KEY,
    post_id BIGINT NOT NULL,
    author_id UUID NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT fk_comment_post
        FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
    CONSTRAINT fk_comment_author
        FOREIGN KEY(author_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS follows (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL,
    author_id UUID NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT fk_follow_user
        FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
    CONSTRAINT fk_follow_author
        FOREIGN KEY(author_id) REFERENCES users(id) ON DELETE CASCADE,
    CONSTRAINT unique_following UNIQUE (user_id, author_id)
);
CREATE INDEX IF NOT EXISTS idx_posts_on_author_id ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_posts_on_group_id ON posts(group_id);
CREATE INDEX IF NOT EXISTS idx_comments_on_post_id ON comments(post_id);
CREATE INDEX IF NOT EXISTS idx_follows_on_user_id ON follows(user_id);
`

// Column list shared by every post query. Author handle and group title/slug
// come along so list pages render in one round trip.
const postColumns = `p.id, p.text, p.author_id, u.username,
    p.group_id, COALESCE(g.title, ''), COALESCE(g.slug, ''), p.image, p.created_at`

const postFrom = ` FROM posts p
    JOIN users u ON u.id = p.author_id
    LEFT JOIN groups g ON g.id = p.group_id`

type Database struct {
	pool *pgxpool.Pool
}

func NewDatabase(ctx context.Context, connectionString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{pool: pool}, nil
}

func (d *Database) CreateTables(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, schema)
	return err
}

func (d *Database) Close() {
	d.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func scanPost(row pgx.Row, p *Post) error {
	return row.Scan(&p.ID, &p.Text, &p.AuthorID, &p.Author,
		&p.GroupID, &p.GroupTitle, &p.GroupSlug, &p.Image, &p.CreatedAt)
}

func (d *Database) collectPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		var p Post
		if err := scanPost(rows, &p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// --- Post Functions ---

func (d *Database) CreatePost(ctx context.Context, post *Post) error {
	query := `INSERT INTO posts (text, author_id, group_id, image) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return d.pool.QueryRow(ctx, query, post.Text, post.AuthorID, post.GroupID, post.Image).
		Scan(&post.ID, &post.CreatedAt)
}

// UpdatePost changes text, group, and image only. Author and creation time
// stay as written.
func (d *Database) UpdatePost(ctx context.Context, post *Post) error {
	query := `UPDATE posts SET text = $1, group_id = $2, image = $3 WHERE id = $4`
	tag, err := d.pool.Exec(ctx, query, post.Text, post.GroupID, post.Image, post.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.id = $1`
	err := scanPost(d.pool.QueryRow(ctx, query, id), &post)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (d *Database) DeletePost(ctx context.Context, id int64) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

func (d *Database) ListPosts(ctx context.Context) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` ORDER BY p.created_at DESC, p.id DESC`
	return d.collectPosts(ctx, query)
}

func (d *Database) ListPostsByGroup(ctx context.Context, groupID int64) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.group_id = $1 ORDER BY p.created_at DESC, p.id DESC`
	return d.collectPosts(ctx, query, groupID)
}

func (d *Database) ListPostsByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.author_id = $1 ORDER BY p.created_at DESC, p.id DESC`
	return d.collectPosts(ctx, query, authorID)
}

// ListFeedPosts returns posts written by any author the user follows.
func (d *Database) ListFeedPosts(ctx context.Context, userID string) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
        JOIN follows f ON f.author_id = p.author_id
        WHERE f.user_id = $1
        ORDER BY p.created_at DESC, p.id DESC`
	return d.collectPosts(ctx, query, userID)
}

func (d *Database) CountPostsByAuthor(ctx context.Context, authorID string) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID).Scan(&count)
	return count, err
}

// --- Group Functions ---

func (d *Database) CreateGroup(ctx context.Context, group *Group) error {
	query := `INSERT INTO groups (title, slug, description) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := d.pool.QueryRow(ctx, query, group.Title, group.Slug, group.Description).
		Scan(&group.ID, &group.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("slug %q: %w", group.Slug, ErrDuplicate)
	}
	return err
}

// DeleteGroup leaves the group's posts in place; the storage layer sets
// their group reference to NULL.
func (d *Database) DeleteGroup(ctx context.Context, id int64) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	return err
}

func (d *Database) GetGroupBySlug(ctx context.Context, slug string) (*Group, error) {
	var group Group
	query := `SELECT id, title, slug, description, created_at FROM groups WHERE slug = $1`
	err := d.pool.QueryRow(ctx, query, slug).
		Scan(&group.ID, &group.Title, &group.Slug, &group.Description, &group.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (d *Database) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, title, slug, description, created_at FROM groups ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// --- Comment Functions ---

func (d *Database) CreateComment(ctx context.Context, comment *Comment) error {
	query := `INSERT INTO comments (post_id, author_id, text) VALUES ($1, $2, $3) RETURNING id, created_at`
	return d.pool.QueryRow(ctx, query, comment.PostID, comment.AuthorID, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt)
}

func (d *Database) DeleteComment(ctx context.Context, id int64) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}

// ListComments returns every comment, newest first, for the admin surface.
func (d *Database) ListComments(ctx context.Context) ([]Comment, error) {
	query := `SELECT c.id, c.post_id, c.author_id, u.username, c.text, c.created_at
        FROM comments c
        JOIN users u ON u.id = c.author_id
        ORDER BY c.created_at DESC, c.id DESC`
	return d.collectComments(ctx, query)
}

func (d *Database) ListCommentsByPost(ctx context.Context, postID int64) ([]Comment, error) {
	query := `SELECT c.id, c.post_id, c.author_id, u.username, c.text, c.created_at
        FROM comments c
        JOIN users u ON u.id = c.author_id
        WHERE c.post_id = $1
        ORDER BY c.created_at DESC, c.id DESC`
	return d.collectComments(ctx, query, postID)
}

func (d *Database) collectComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// --- Follow Functions ---

// CreateFollow is idempotent: the unique (user_id, author_id) constraint plus
// ON CONFLICT DO NOTHING make concurrent duplicate requests converge on a
// single edge without surfacing an error.
func (d *Database) CreateFollow(ctx context.Context, userID, authorID string) error {
	query := `INSERT INTO follows (user_id, author_id) VALUES ($1, $2)
        ON CONFLICT (user_id, author_id) DO NOTHING`
	_, err := d.pool.Exec(ctx, query, userID, authorID)
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

// DeleteFollow is a no-op when the edge does not exist.
func (d *Database) DeleteFollow(ctx context.Context, userID, authorID string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`, userID, authorID)
	return err
}

func (d *Database) FollowExists(ctx context.Context, userID, authorID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)`
	err := d.pool.QueryRow(ctx, query, userID, authorID).Scan(&exists)
	return exists, err
}

// --- User Functions ---

func (d *Database) SaveUser(ctx context.Context, user *User) error {
	query := `
        INSERT INTO users (id, username, email, hash, admin, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            email = EXCLUDED.email,
            hash = EXCLUDED.hash,
            admin = EXCLUDED.admin;
    `
	_, err := d.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Hash,
		user.Admin,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("username or email: %w", ErrDuplicate)
	}
	return err
}

func (d *Database) GetUserByID(ctx context.Context, id string) (*User, error) {
	return d.getUser(ctx, `WHERE id = $1`, id)
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return d.getUser(ctx, `WHERE username = $1`, username)
}

func (d *Database) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	query := `SELECT id, username, email, hash, admin, created_at FROM users ` + where
	err := d.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.Hash, &user.Admin, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
