package main

import (
	"errors"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newFormValidator()

// newFormValidator reports field errors under their form names.
func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FormErrors maps a form field name to the message displayed below it.
type FormErrors map[string]string

func (fe FormErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+fe[field])
	}
	return strings.Join(parts, "; ")
}

// BookForm is the add/edit book form.
type BookForm struct {
	Title       string `form:"title" validate:"min=3"`
	Description string `form:"description" validate:"min=10"`
}

// LoginForm is the login form. Submissions are never authenticated.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RegisterForm is the account creation form. Submissions are never stored.
type RegisterForm struct {
	Name            string `form:"name" validate:"required"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
}

var bookFormMessages = map[string]string{
	"title.min":       "O título deve ter pelo menos 3 caracteres.",
	"description.min": "A descrição deve ter pelo menos 10 caracteres.",
}

var loginFormMessages = map[string]string{
	"email.required":    "Por favor, insira um endereço de e-mail válido.",
	"email.email":       "Por favor, insira um endereço de e-mail válido.",
	"password.required": "A senha é obrigatória.",
}

var registerFormMessages = map[string]string{
	"name.required":           "O nome é obrigatório.",
	"email.required":          "Por favor, insira um endereço de e-mail válido.",
	"email.email":             "Por favor, insira um endereço de e-mail válido.",
	"password.min":            "A senha deve ter pelo menos 6 caracteres.",
	"confirmPassword.eqfield": "As senhas não coincidem.",
}

// validateForm runs the struct rules and translates each failure into
// its form message. It returns nil or a FormErrors value.
func validateForm(form interface{}, messages map[string]string) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := FormErrors{}
	for _, e := range verrs {
		if _, seen := fe[e.Field()]; seen {
			continue
		}
		msg, ok := messages[e.Field()+"."+e.Tag()]
		if !ok {
			msg = "Valor inválido."
		}
		fe[e.Field()] = msg
	}
	return fe
}

func ValidateBookForm(f BookForm) error {
	return validateForm(f, bookFormMessages)
}

func ValidateLoginForm(f LoginForm) error {
	return validateForm(f, loginFormMessages)
}

func ValidateRegisterForm(f RegisterForm) error {
	return validateForm(f, registerFormMessages)
}

// ParseBookForm reads the book form fields of a submitted request.
func ParseBookForm(r *http.Request) (BookForm, error) {
	if err := r.ParseForm(); err != nil {
		return BookForm{}, err
	}
	return BookForm{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
	}, nil
}

// ParseLoginForm reads the login form fields of a submitted request.
func ParseLoginForm(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}, nil
}

// ParseRegisterForm reads the registration form fields of a submitted request.
func ParseRegisterForm(r *http.Request) (RegisterForm, error) {
	if err := r.ParseForm(); err != nil {
		return RegisterForm{}, err
	}
	return RegisterForm{
		Name:            strings.TrimSpace(r.PostForm.Get("name")),
		Email:           strings.TrimSpace(r.PostForm.Get("email")),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
	}, nil
}

// AsFormErrors extracts field messages from a validation error.
func AsFormErrors(err error) (FormErrors, bool) {
	var fe FormErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
