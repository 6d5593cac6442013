// blog/admin.go
package blog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// adminRow is the flat line the admin list template renders for any entity.
type adminRow struct {
	ID      int64
	Label   string
	Created time.Time
}

// adminResource is one entry in the explicit admin registration list: a name,
// a lister, and a deleter. This replaces a generated admin interface; post
// and comment deletion exist only here, never in the public handlers.
type adminResource struct {
	Name   string
	List   func(ctx context.Context) ([]adminRow, error)
	Delete func(ctx context.Context, id int64) error
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func (h *Handlers) adminResources() []adminResource {
	return []adminResource{
		{
			Name: "posts",
			List: func(ctx context.Context) ([]adminRow, error) {
				posts, err := h.db.ListPosts(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(posts))
				for _, p := range posts {
					rows = append(rows, adminRow{ID: p.ID, Label: p.Author + ": " + truncate(p.Text, 40), Created: p.CreatedAt})
				}
				return rows, nil
			},
			Delete: h.db.DeletePost,
		},
		{
			Name: "groups",
			List: func(ctx context.Context) ([]adminRow, error) {
				groups, err := h.db.ListGroups(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(groups))
				for _, g := range groups {
					rows = append(rows, adminRow{ID: g.ID, Label: g.Title + " (" + g.Slug + ")", Created: g.CreatedAt})
				}
				return rows, nil
			},
			Delete: h.db.DeleteGroup,
		},
		{
			Name: "comments",
			List: func(ctx context.Context) ([]adminRow, error) {
				comments, err := h.db.ListComments(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]adminRow, 0, len(comments))
				for _, c := range comments {
					rows = append(rows, adminRow{ID: c.ID, Label: c.Author + ": " + truncate(c.Text, 40), Created: c.CreatedAt})
				}
				return rows, nil
			},
			Delete: h.db.DeleteComment,
		},
	}
}

func (h *Handlers) adminResource(name string) (adminResource, bool) {
	for _, res := range h.adminResources() {
		if res.Name == name {
			return res, true
		}
	}
	return adminResource{}, false
}

func (h *Handlers) registerAdmin(r chi.Router) {
	r.Get("/admin", h.requireAdmin(h.adminIndex))
	r.Get("/admin/groups/new", h.requireAdmin(h.adminNewGroup))
	r.Post("/admin/groups/new", h.requireAdmin(h.adminNewGroup))
	r.Post("/admin/cache/clear", h.requireAdmin(h.adminClearCache))
	r.Get("/admin/{resource}", h.requireAdmin(h.adminList))
	r.Post("/admin/{resource}/{id}/delete", h.requireAdmin(h.adminDelete))
}

func (h *Handlers) adminIndex(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0)
	for _, res := range h.adminResources() {
		names = append(names, res.Name)
	}
	h.render(w, r, "admin_index.html", map[string]any{
		"Title":     "Administration",
		"Resources": names,
	})
}

func (h *Handlers) adminList(w http.ResponseWriter, r *http.Request) {
	res, ok := h.adminResource(chi.URLParam(r, "resource"))
	if !ok {
		h.notFound(w, r)
		return
	}
	rows, err := res.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "admin_list.html", map[string]any{
		"Title":    "Administration: " + res.Name,
		"Resource": res.Name,
		"Rows":     rows,
	})
}

func (h *Handlers) adminDelete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.adminResource(chi.URLParam(r, "resource"))
	if !ok {
		h.notFound(w, r)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.notFound(w, r)
		return
	}
	if err := res.Delete(r.Context(), id); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/"+res.Name, http.StatusSeeOther)
}

func (h *Handlers) adminNewGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "admin_group_form.html", map[string]any{
			"Title": "New group",
			"Form":  GroupForm{},
		})
		return
	}

	form := ParseGroupForm(r)
	if form.Errors.Valid() {
		group := &Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
		err := h.db.CreateGroup(r.Context(), group)
		if errors.Is(err, ErrDuplicate) {
			form.Errors["Slug"] = "slug already taken"
		} else if err != nil {
			h.serverError(w, r, err)
			return
		} else {
			http.Redirect(w, r, "/admin/groups", http.StatusSeeOther)
			return
		}
	}
	h.render(w, r, "admin_group_form.html", map[string]any{
		"Title": "New group",
		"Form":  form,
	})
}

// adminClearCache is the operator action that empties the home-feed cache;
// nothing else invalidates it before the TTL.
func (h *Handlers) adminClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
