package blog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store used by the handler tests. It mirrors the
// referential rules of the real schema: deleting a group nulls the group
// reference on its posts, deleting a post drops its comments, and the
// (user, author) follow pair is unique.
type memStore struct {
	mu       sync.Mutex
	posts    map[int64]*Post
	groups   map[int64]*Group
	comments map[int64]*Comment
	follows  map[[2]string]*Follow
	users    map[string]*User
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		posts:    make(map[int64]*Post),
		groups:   make(map[int64]*Group),
		comments: make(map[int64]*Comment),
		follows:  make(map[[2]string]*Follow),
		users:    make(map[string]*User),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// resolve fills the denormalized author and group columns the SQL joins
// would produce.
func (m *memStore) resolve(p *Post) Post {
	out := *p
	for _, u := range m.users {
		if u.ID == p.AuthorID {
			out.Author = u.Username
		}
	}
	out.GroupTitle, out.GroupSlug = "", ""
	if p.GroupID != nil {
		if g, ok := m.groups[*p.GroupID]; ok {
			out.GroupTitle, out.GroupSlug = g.Title, g.Slug
		}
	}
	return out
}

func sortPostsDesc(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}

func (m *memStore) CreatePost(_ context.Context, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = m.id()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *memStore) UpdatePost(_ context.Context, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Text = post.Text
	existing.GroupID = post.GroupID
	existing.Image = post.Image
	return nil
}

func (m *memStore) GetPost(_ context.Context, id int64) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := m.resolve(post)
	return &out, nil
}

func (m *memStore) DeletePost(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *memStore) listPosts(keep func(*Post) bool) []Post {
	var out []Post
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, m.resolve(p))
		}
	}
	sortPostsDesc(out)
	return out
}

func (m *memStore) ListPosts(_ context.Context) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listPosts(func(*Post) bool { return true }), nil
}

func (m *memStore) ListPostsByGroup(_ context.Context, groupID int64) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listPosts(func(p *Post) bool { return p.GroupID != nil && *p.GroupID == groupID }), nil
}

func (m *memStore) ListPostsByAuthor(_ context.Context, authorID string) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listPosts(func(p *Post) bool { return p.AuthorID == authorID }), nil
}

func (m *memStore) ListFeedPosts(_ context.Context, userID string) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	followed := make(map[string]bool)
	for key, f := range m.follows {
		if f.UserID == userID {
			followed[key[1]] = true
		}
	}
	return m.listPosts(func(p *Post) bool { return followed[p.AuthorID] }), nil
}

func (m *memStore) CountPostsByAuthor(_ context.Context, authorID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CreateGroup(_ context.Context, group *Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Slug == group.Slug {
			return ErrDuplicate
		}
	}
	group.ID = m.id()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

func (m *memStore) DeleteGroup(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, id)
	for _, p := range m.posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
		}
	}
	return nil
}

func (m *memStore) GetGroupBySlug(_ context.Context, slug string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Slug == slug {
			out := *g
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListGroups(_ context.Context) ([]Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Group
	for _, g := range m.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memStore) CreateComment(_ context.Context, comment *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment.ID = m.id()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *memStore) DeleteComment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.comments, id)
	return nil
}

func (m *memStore) ListComments(_ context.Context) ([]Comment, error) {
	return m.listComments(func(*Comment) bool { return true })
}

func (m *memStore) ListCommentsByPost(_ context.Context, postID int64) ([]Comment, error) {
	return m.listComments(func(c *Comment) bool { return c.PostID == postID })
}

func (m *memStore) listComments(keep func(*Comment) bool) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Comment
	for _, c := range m.comments {
		if !keep(c) {
			continue
		}
		cc := *c
		for _, u := range m.users {
			if u.ID == c.AuthorID {
				cc.Author = u.Username
			}
		}
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memStore) CreateFollow(_ context.Context, userID, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{userID, authorID}
	if _, exists := m.follows[key]; exists {
		return nil
	}
	m.follows[key] = &Follow{ID: m.id(), UserID: userID, AuthorID: authorID, CreatedAt: time.Now()}
	return nil
}

func (m *memStore) DeleteFollow(_ context.Context, userID, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.follows, [2]string{userID, authorID})
	return nil
}

func (m *memStore) FollowExists(_ context.Context, userID, authorID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.follows[[2]string{userID, authorID}]
	return exists, nil
}

func (m *memStore) followCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.follows)
}

func (m *memStore) commentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comments)
}

func (m *memStore) SaveUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return ErrDuplicate
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}
