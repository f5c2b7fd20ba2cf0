package validation

import (
	"net/url"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

// Form field names, shared by templates and handlers.
const (
	FieldName            = "name"
	FieldUsername        = domainauth.FieldUsername
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Field constraints.
const (
	NameMinLen     = 2
	NameMaxLen     = 50
	UsernameMinLen = 3
	UsernameMaxLen = 30
	PasswordMinLen = 8

	MsgPasswordsDontMatch = "Passwords don't match"
)

// LoginForm holds the login form fields.
type LoginForm struct {
	Username string
	Password string
}

// ParseLoginForm reads a LoginForm from submitted form values.
func ParseLoginForm(v url.Values) LoginForm {
	return LoginForm{
		Username: v.Get(FieldUsername),
		Password: v.Get(FieldPassword),
	}
}

// Validate checks every field and returns per-field messages; an empty map means valid.
func (f LoginForm) Validate() map[string]string {
	return New().
		Validate(FieldUsername, f.Username, Length("Username", UsernameMinLen, UsernameMaxLen)...).
		Validate(FieldPassword, f.Password, MinLength("Password", PasswordMinLen)).
		Errors()
}

// Credentials returns the wire body for the login endpoint.
func (f LoginForm) Credentials() domainauth.Credentials {
	return domainauth.Credentials{Username: f.Username, Password: f.Password}
}

// RegisterForm holds the register form fields. ConfirmPassword exists only here;
// it never appears in the request sent to the backend.
type RegisterForm struct {
	Name            string
	Username        string
	Password        string
	ConfirmPassword string
}

// ParseRegisterForm reads a RegisterForm from submitted form values.
func ParseRegisterForm(v url.Values) RegisterForm {
	return RegisterForm{
		Name:            v.Get(FieldName),
		Username:        v.Get(FieldUsername),
		Password:        v.Get(FieldPassword),
		ConfirmPassword: v.Get(FieldConfirmPassword),
	}
}

// Validate checks every field and returns per-field messages; an empty map means valid.
// A password mismatch is reported on the confirmation field only.
func (f RegisterForm) Validate() map[string]string {
	return New().
		Validate(FieldName, f.Name, Length("Name", NameMinLen, NameMaxLen)...).
		Validate(FieldUsername, f.Username, Length("Username", UsernameMinLen, UsernameMaxLen)...).
		Validate(FieldPassword, f.Password, MinLength("Password", PasswordMinLen)).
		Validate(FieldConfirmPassword, f.ConfirmPassword, Equals(f.Password, MsgPasswordsDontMatch)).
		Errors()
}

// Registration returns the wire body for the register endpoint.
func (f RegisterForm) Registration() domainauth.Registration {
	return domainauth.Registration{Name: f.Name, Username: f.Username, Password: f.Password}
}
