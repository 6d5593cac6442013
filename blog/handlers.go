// blog/handlers.go
package blog

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxUploadBytes = 10 << 20

type Handlers struct {
	db        Store
	cache     *FeedCache
	media     *MediaStore
	templates *template.Template
	log       zerolog.Logger
	pageSize  int

	Session *scs.SessionManager
}

func NewHandlers(db Store, cfg Config, cache *FeedCache, media *MediaStore, logger zerolog.Logger) (*Handlers, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handlers{
		db:        db,
		cache:     cache,
		media:     media,
		templates: tpl,
		log:       logger,
		pageSize:  cfg.PageSize,
		Session:   scs.New(),
	}, nil
}

// Routes builds the full route table and wraps it with the session
// middleware so every handler sees a loaded session.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(h.notFound)

	r.Get("/", h.index)
	r.Get("/group/{slug}", h.groupPosts)
	r.Get("/profile/{username}", h.profile)
	r.Get("/posts/{postID}", h.postDetail)

	r.Get("/create", h.requireLogin(h.createPost))
	r.Post("/create", h.requireLogin(h.createPost))
	r.Get("/posts/{postID}/edit", h.requireLogin(h.editPost))
	r.Post("/posts/{postID}/edit", h.requireLogin(h.editPost))
	r.Post("/posts/{postID}/comment", h.requireLogin(h.addComment))
	r.Get("/follow", h.requireLogin(h.followIndex))
	r.Get("/profile/{username}/follow", h.requireLogin(h.profileFollow))
	r.Get("/profile/{username}/unfollow", h.requireLogin(h.profileUnfollow))

	r.Get("/auth/signup", h.signup)
	r.Post("/auth/signup", h.signup)
	r.Get("/auth/login", h.loginPage)
	r.Post("/auth/login", h.loginPage)
	r.Get("/auth/logout", h.logout)

	r.Get("/about/author", h.aboutAuthor)
	r.Get("/about/tech", h.aboutTech)

	h.registerAdmin(r)

	if h.media != nil {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(h.media.Root)))
		r.Handle("/media/*", fs)
	}

	return h.Session.LoadAndSave(r)
}

// renderBytes executes a page template into a buffer so a late template
// error can still become a 500 instead of a half-written page.
func (h *Handlers) renderBytes(r *http.Request, name string, data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	user, logged := h.currentUser(r)
	data["User"] = user
	data["Logged"] = logged
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	body, err := h.renderBytes(r, name, data)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	body, err := h.renderBytes(r, "notfound.html", map[string]any{"Title": "Not Found"})
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(body)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("handler failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// index lists every post, newest first. Rendered pages are served from the
// feed cache keyed by the page parameter; a write to the post collection
// does not invalidate them, so responses may be one TTL stale.
func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	rawPage := r.URL.Query().Get("page")
	key := "home:page=" + rawPage
	if body, ok := h.cache.Get(key); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
		return
	}

	posts, err := h.db.ListPosts(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	body, err := h.renderBytes(r, "index.html", map[string]any{
		"Title": "Latest updates",
		"Page":  Paginate(posts, h.pageSize, rawPage),
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.cache.Set(key, body)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

func (h *Handlers) groupPosts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	group, err := h.db.GetGroupBySlug(r.Context(), slug)
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	posts, err := h.db.ListPostsByGroup(r.Context(), group.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "group_list.html", map[string]any{
		"Title": group.Title,
		"Group": group,
		"Page":  Paginate(posts, h.pageSize, r.URL.Query().Get("page")),
	})
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	author, err := h.db.GetUserByUsername(r.Context(), username)
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	posts, err := h.db.ListPostsByAuthor(r.Context(), author.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	var following, isSelf bool
	if viewer, ok := h.currentUser(r); ok {
		isSelf = viewer.ID == author.ID
		following, err = h.db.FollowExists(r.Context(), viewer.ID, author.ID)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	h.render(w, r, "profile.html", map[string]any{
		"Title":     "Posts by " + author.Username,
		"Author":    author,
		"PostCount": len(posts),
		"Page":      Paginate(posts, h.pageSize, r.URL.Query().Get("page")),
		"Following": following,
		"IsSelf":    isSelf,
	})
}

func (h *Handlers) postDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	count, err := h.db.CountPostsByAuthor(r.Context(), post.AuthorID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	comments, err := h.db.ListCommentsByPost(r.Context(), post.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, "post_detail.html", map[string]any{
		"Title":     "Post by " + post.Author,
		"Post":      post,
		"PostCount": count,
		"Comments":  comments,
		"Form":      CommentForm{},
	})
}

// lookupPost resolves the postID path parameter, writing a 404 for malformed
// or unknown ids.
func (h *Handlers) lookupPost(w http.ResponseWriter, r *http.Request) (*Post, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		h.notFound(w, r)
		return nil, false
	}
	post, err := h.db.GetPost(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return post, true
}

// resolveGroup checks a submitted group id against the known groups.
func resolveGroup(groups []Group, id *int64) bool {
	if id == nil {
		return true
	}
	for _, g := range groups {
		if g.ID == *id {
			return true
		}
	}
	return false
}

func (h *Handlers) createPost(w http.ResponseWriter, r *http.Request) {
	user, _ := h.currentUser(r)
	groups, err := h.db.ListGroups(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, "post_form.html", map[string]any{
			"Title":  "New post",
			"Button": "Add",
			"Form":   PostForm{},
			"Groups": groups,
		})
		return
	}

	r.ParseMultipartForm(maxUploadBytes)
	form := ParsePostForm(r)
	if form.GroupID != nil && !resolveGroup(groups, form.GroupID) {
		form.Errors["Group"] = "unknown group"
	}

	if !form.Errors.Valid() {
		h.render(w, r, "post_form.html", map[string]any{
			"Title":  "New post",
			"Button": "Add",
			"Form":   form,
			"Groups": groups,
		})
		return
	}

	// The author always comes from the session, never from the form.
	post := &Post{Text: form.Text, AuthorID: user.ID, GroupID: form.GroupID}
	image, err := h.saveUpload(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	post.Image = image
	if err := h.db.CreatePost(r.Context(), post); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+user.Username, http.StatusSeeOther)
}

func (h *Handlers) editPost(w http.ResponseWriter, r *http.Request) {
	user, _ := h.currentUser(r)
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}
	detailURL := "/posts/" + strconv.FormatInt(post.ID, 10)

	// Non-authors are bounced to the detail page without an error.
	if post.AuthorID != user.ID {
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}

	groups, err := h.db.ListGroups(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if r.Method == http.MethodGet {
		form := PostForm{Text: post.Text, GroupID: post.GroupID}
		if post.GroupID != nil {
			form.Group = strconv.FormatInt(*post.GroupID, 10)
		}
		h.render(w, r, "post_form.html", map[string]any{
			"Title":  "Edit post",
			"Button": "Save",
			"IsEdit": true,
			"Post":   post,
			"Form":   form,
			"Groups": groups,
		})
		return
	}

	r.ParseMultipartForm(maxUploadBytes)
	form := ParsePostForm(r)
	if form.GroupID != nil && !resolveGroup(groups, form.GroupID) {
		form.Errors["Group"] = "unknown group"
	}

	if !form.Errors.Valid() {
		h.render(w, r, "post_form.html", map[string]any{
			"Title":  "Edit post",
			"Button": "Save",
			"IsEdit": true,
			"Post":   post,
			"Form":   form,
			"Groups": groups,
		})
		return
	}

	// Text, group, and image are the only mutable fields. The stored image
	// is kept when no replacement was uploaded.
	post.Text = form.Text
	post.GroupID = form.GroupID
	image, err := h.saveUpload(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if image != "" {
		post.Image = image
	}
	if err := h.db.UpdatePost(r.Context(), post); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, detailURL, http.StatusSeeOther)
}

// saveUpload stores the image part when one was submitted, returning the
// stored path or "" when the request carried no image.
func (h *Handlers) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return "", nil
	}
	defer file.Close()
	if h.media == nil {
		return "", nil
	}
	return h.media.SaveImage(file, header)
}

func (h *Handlers) addComment(w http.ResponseWriter, r *http.Request) {
	user, _ := h.currentUser(r)
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}
	detailURL := "/posts/" + strconv.FormatInt(post.ID, 10)

	form := ParseCommentForm(r)
	if form.Errors.Valid() {
		comment := &Comment{PostID: post.ID, AuthorID: user.ID, Text: form.Text}
		if err := h.db.CreateComment(r.Context(), comment); err != nil {
			h.serverError(w, r, err)
			return
		}
	}
	// TODO: re-render post_detail with form.Errors instead of dropping an
	// invalid comment silently.
	http.Redirect(w, r, detailURL, http.StatusSeeOther)
}

func (h *Handlers) followIndex(w http.ResponseWriter, r *http.Request) {
	user, _ := h.currentUser(r)
	posts, err := h.db.ListFeedPosts(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "follow.html", map[string]any{
		"Title": "Latest posts from authors you follow",
		"Page":  Paginate(posts, h.pageSize, r.URL.Query().Get("page")),
	})
}

func (h *Handlers) profileFollow(w http.ResponseWriter, r *http.Request) {
	user, _ := h.currentUser(r)
	username := chi.URLParam(r, "username")
	author, err := h.db.GetUserByUsername(r.Context(), username)
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	// Self-follow is rejected silently.
	if author.ID != user.ID {
		if err := h.db.CreateFollow(r.Context(), user.ID, author.ID); err != nil {
			h.serverError(w, r, err)
			return
		}
	}
	http.Redirect(w, r, "/profile/"+author.Username, http.StatusSeeOther)
}

func (h *Handlers) profileUnfollow(w http.ResponseWriter, r *http.Request) {
	user, _ := h.currentUser(r)
	username := chi.URLParam(r, "username")
	author, err := h.db.GetUserByUsername(r.Context(), username)
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if err := h.db.DeleteFollow(r.Context(), user.ID, author.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+author.Username, http.StatusSeeOther)
}

func (h *Handlers) aboutAuthor(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "about_author.html", map[string]any{"Title": "About the author"})
}

func (h *Handlers) aboutTech(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "about_tech.html", map[string]any{"Title": "Technologies"})
}
