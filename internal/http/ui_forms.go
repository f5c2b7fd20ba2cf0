package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	"github.com/target/profile-portal/internal/http/ui/viewmodel"
	"github.com/target/profile-portal/internal/http/validation"
)

// fieldSpec describes one form input independent of its current value.
type fieldSpec struct {
	name, label, typ, placeholder, autocomplete string
}

var (
	usernameSpec = fieldSpec{validation.FieldUsername, "Username", "text", "Enter your username", "username"}
	nameSpec     = fieldSpec{validation.FieldName, "Name", "text", "Enter your name", "name"}
	confirmSpec  = fieldSpec{validation.FieldConfirmPassword, "Confirm Password", "password", "Confirm your password", "new-password"}
)

func passwordSpec(autocomplete string) fieldSpec {
	return fieldSpec{validation.FieldPassword, "Password", "password", "Enter your password", autocomplete}
}

// formState is what one request knows about a form: its values, which fields the user
// has touched and whether it was submitted.
type formState struct {
	values    map[string]string
	touched   map[string]bool
	submitted bool
	errors    map[string]string
	formError string
	pending   bool
}

// parseTouched collects the touched markers posted with the form.
func parseTouched(r *http.Request) map[string]bool {
	out := map[string]bool{}
	for _, v := range r.PostForm[TouchedField] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out[name] = true
			}
		}
	}
	return out
}

func (s formState) field(spec fieldSpec) viewmodel.Field {
	return viewmodel.Field{
		Name:         spec.name,
		Label:        spec.label,
		Type:         spec.typ,
		Placeholder:  spec.placeholder,
		Autocomplete: spec.autocomplete,
		Value:        s.values[spec.name],
		Error:        s.errors[spec.name],
		Touched:      s.submitted || s.touched[spec.name],
	}
}

func loginFormView(s formState) viewmodel.Form {
	return viewmodel.Form{
		ID:          "login-form",
		Action:      domainauth.PathLogin,
		ValidateURL: domainauth.PathLogin + "/validate",
		Submit:      "Login",
		Fields: []viewmodel.Field{
			s.field(usernameSpec),
			s.field(passwordSpec("current-password")),
		},
		FormError: s.formError,
		Pending:   s.pending,
		LinkLead:  "Don't have an account?",
		LinkText:  "Register",
		LinkHref:  domainauth.PathRegister,
	}
}

func registerFormView(s formState) viewmodel.Form {
	return viewmodel.Form{
		ID:          "register-form",
		Action:      domainauth.PathRegister,
		ValidateURL: domainauth.PathRegister + "/validate",
		Submit:      "Register",
		Fields: []viewmodel.Field{
			s.field(nameSpec),
			s.field(usernameSpec),
			s.field(passwordSpec("new-password")),
			s.field(confirmSpec),
		},
		FormError: s.formError,
		Pending:   s.pending,
		LinkLead:  "Already have an account?",
		LinkText:  "Login",
		LinkHref:  domainauth.PathLogin,
	}
}

func loginFormState(f validation.LoginForm) formState {
	return formState{
		values: map[string]string{
			validation.FieldUsername: f.Username,
			validation.FieldPassword: f.Password,
		},
		errors: f.Validate(),
	}
}

func registerFormState(f validation.RegisterForm) formState {
	return formState{
		values: map[string]string{
			validation.FieldName:            f.Name,
			validation.FieldUsername:        f.Username,
			validation.FieldPassword:        f.Password,
			validation.FieldConfirmPassword: f.ConfirmPassword,
		},
		errors: f.Validate(),
	}
}

// mergeErrors overlays server-reported field errors on the client-side ones.
func mergeErrors(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
