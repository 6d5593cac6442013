// blog/user.go
package blog

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionUserKey = "userID"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Hash      []byte    `json:"-"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(username, email string) *User {
	return &User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Hash = hash
	return nil
}

func (u *User) PasswordMatches(input string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(u.Hash, []byte(input))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}

// currentUser resolves the session to a full user row. The second return is
// false for anonymous requests and for sessions pointing at a deleted user.
func (h *Handlers) currentUser(r *http.Request) (*User, bool) {
	id := h.Session.GetString(r.Context(), sessionUserKey)
	if id == "" {
		return nil, false
	}
	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		return nil, false
	}
	return user, true
}

// requireLogin redirects anonymous requests to the login page, carrying the
// original URL in the next parameter.
func (h *Handlers) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.currentUser(r); !ok {
			http.Redirect(w, r, "/auth/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (h *Handlers) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(r)
		if !ok || !user.Admin {
			h.notFound(w, r)
			return
		}
		next(w, r)
	}
}

// --- Auth handlers ---

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "signup.html", map[string]any{"Form": SignupForm{}})
		return
	}

	form := ParseSignupForm(r)
	if !form.Errors.Valid() {
		h.render(w, r, "signup.html", map[string]any{"Form": form})
		return
	}

	user := NewUser(form.Username, form.Email)
	if err := user.SetPassword(form.Password); err != nil {
		h.serverError(w, r, err)
		return
	}
	if err := h.db.SaveUser(r.Context(), user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			form.Errors["Username"] = "username or email already taken"
			h.render(w, r, "signup.html", map[string]any{"Form": form})
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.login(w, r, user)
}

func (h *Handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "login.html", map[string]any{"Form": LoginForm{}, "Next": r.URL.Query().Get("next")})
		return
	}

	form := ParseLoginForm(r)
	if form.Errors.Valid() {
		user, err := h.db.GetUserByUsername(r.Context(), form.Username)
		if err == nil {
			if ok, merr := user.PasswordMatches(form.Password); merr == nil && ok {
				h.login(w, r, user)
				return
			}
		} else if !errors.Is(err, ErrNotFound) {
			h.serverError(w, r, err)
			return
		}
		form.Errors["form"] = "wrong username or password"
	}
	h.render(w, r, "login.html", map[string]any{"Form": form, "Next": r.FormValue("next")})
}

// safeNext keeps post-login redirects on this site. Only single-slash
// relative paths pass; "//host" and "/\host" are scheme-relative URLs in
// browsers and would bounce the user to another origin.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// login renews the session token before binding it to the user, then sends
// the browser to the next target or home.
func (h *Handlers) login(w http.ResponseWriter, r *http.Request, user *User) {
	if err := h.Session.RenewToken(r.Context()); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.Session.Put(r.Context(), sessionUserKey, user.ID)
	http.Redirect(w, r, safeNext(r.FormValue("next")), http.StatusSeeOther)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.Session.Remove(r.Context(), sessionUserKey)
	if err := h.Session.RenewToken(r.Context()); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
