// blog/forms.go
package blog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors maps form field names to a message the template renders next
// to the field.
type FieldErrors map[string]string

func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// fieldErrors flattens validator output into per-field messages.
func fieldErrors(err error) FieldErrors {
	fe := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe["form"] = "invalid input"
		return fe
	}
	for _, v := range verrs {
		switch v.Tag() {
		case "required":
			fe[v.Field()] = "this field is required"
		case "email":
			fe[v.Field()] = "enter a valid email address"
		case "min":
			fe[v.Field()] = "too short"
		default:
			fe[v.Field()] = "invalid value"
		}
	}
	return fe
}

// PostForm backs both the create and edit operations. Group is the raw
// submitted group id; GroupID is set once the handler resolves it.
type PostForm struct {
	Text    string `validate:"required"`
	Group   string
	GroupID *int64
	Errors  FieldErrors
}

// ParsePostForm reads the submitted fields. The image part is handled
// separately by the media layer.
func ParsePostForm(r *http.Request) PostForm {
	form := PostForm{
		Text:   strings.TrimSpace(r.FormValue("text")),
		Group:  strings.TrimSpace(r.FormValue("group")),
		Errors: FieldErrors{},
	}
	if err := validate.Struct(form); err != nil {
		form.Errors = fieldErrors(err)
	}
	if form.Group != "" {
		id, err := strconv.ParseInt(form.Group, 10, 64)
		if err != nil || id < 1 {
			form.Errors["Group"] = "unknown group"
		} else {
			form.GroupID = &id
		}
	}
	return form
}

type CommentForm struct {
	Text   string `validate:"required"`
	Errors FieldErrors
}

func ParseCommentForm(r *http.Request) CommentForm {
	form := CommentForm{
		Text:   strings.TrimSpace(r.FormValue("text")),
		Errors: FieldErrors{},
	}
	if err := validate.Struct(form); err != nil {
		form.Errors = fieldErrors(err)
	}
	return form
}

type SignupForm struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Errors   FieldErrors
}

func ParseSignupForm(r *http.Request) SignupForm {
	form := SignupForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Errors:   FieldErrors{},
	}
	if err := validate.Struct(form); err != nil {
		form.Errors = fieldErrors(err)
	}
	return form
}

type LoginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Errors   FieldErrors
}

func ParseLoginForm(r *http.Request) LoginForm {
	form := LoginForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
		Errors:   FieldErrors{},
	}
	if err := validate.Struct(form); err != nil {
		form.Errors = fieldErrors(err)
	}
	return form
}

// GroupForm backs the admin group-create operation. Slugs are assigned here
// once and never editable afterwards.
type GroupForm struct {
	Title       string `validate:"required"`
	Slug        string `validate:"required"`
	Description string
	Errors      FieldErrors
}

func ParseGroupForm(r *http.Request) GroupForm {
	form := GroupForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Slug:        strings.TrimSpace(r.FormValue("slug")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Errors:      FieldErrors{},
	}
	if err := validate.Struct(form); err != nil {
		form.Errors = fieldErrors(err)
	}
	if form.Slug != "" && !validSlug(form.Slug) {
		form.Errors["Slug"] = "use lowercase letters, digits, and hyphens"
	}
	return form
}

func validSlug(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
