package httpx

import (
	"net/http"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	"github.com/target/profile-portal/internal/http/validation"
	"github.com/target/profile-portal/internal/service"
)

var (
	loginMeta    = PageMeta{Title: "Login", PageTitle: "Login", CurrentPage: PageLogin}
	registerMeta = PageMeta{Title: "Register", PageTitle: "Register", CurrentPage: PageRegister}
)

// LoginPage renders the login form, or sends an authenticated user to the profile.
func (h *UIHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.formPage(w, r, loginMeta, func(snap service.Snapshot) any {
		return loginFormView(formState{
			errors:    validation.LoginForm{}.Validate(),
			formError: snap.LoginError,
			pending:   snap.Loading,
		})
	})
}

// RegisterPage renders the register form, or sends an authenticated user to the profile.
func (h *UIHandlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.formPage(w, r, registerMeta, func(snap service.Snapshot) any {
		return registerFormView(formState{
			errors:    validation.RegisterForm{}.Validate(),
			formError: snap.RegisterError,
			pending:   snap.Loading,
		})
	})
}

func (h *UIHandlers) formPage(w http.ResponseWriter, r *http.Request, meta PageMeta, form func(service.Snapshot) any) {
	sess := SessionFrom(r)
	out := sess.Initialize(r.Context(), r.URL.Path)

	snap := sess.Snapshot()
	if snap.Authenticated() {
		h.navigate(w, r, domainauth.PathProfile, out.Notices...)
		return
	}

	data := NewTemplateData(r, meta).With("Form", form(snap)).Build()
	h.renderPage(w, r, http.StatusOK, data, out.Notices...)
}

// ValidateLogin re-renders the login form with the errors of the touched fields.
func (h *UIHandlers) ValidateLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	st := loginFormState(validation.ParseLoginForm(r.PostForm))
	st.touched = parseTouched(r)
	h.renderForm(w, r, http.StatusOK, loginMeta, loginFormView(st))
}

// ValidateRegister re-renders the register form with the errors of the touched fields.
func (h *UIHandlers) ValidateRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	st := registerFormState(validation.ParseRegisterForm(r.PostForm))
	st.touched = parseTouched(r)
	h.renderForm(w, r, http.StatusOK, registerMeta, registerFormView(st))
}

// Login validates the form and submits the credentials. Invalid input never reaches the backend.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := validation.ParseLoginForm(r.PostForm)
	st := loginFormState(form)
	st.submitted = true

	if len(st.errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, loginMeta, loginFormView(st))
		return
	}

	out := SessionFrom(r).Login(r.Context(), form.Credentials())
	h.finishSubmit(w, r, out, func() {
		st.formError = out.FormError
		st.errors = mergeErrors(st.errors, out.FieldErrors)
		h.renderForm(w, r, http.StatusUnprocessableEntity, loginMeta, loginFormView(st), out.Notices...)
	})
}

// Register validates the form and creates the account. Invalid input never reaches the backend.
func (h *UIHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := validation.ParseRegisterForm(r.PostForm)
	st := registerFormState(form)
	st.submitted = true

	if len(st.errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, registerMeta, registerFormView(st))
		return
	}

	out := SessionFrom(r).Register(r.Context(), form.Registration())
	h.finishSubmit(w, r, out, func() {
		st.formError = out.FormError
		st.errors = mergeErrors(st.errors, out.FieldErrors)
		h.renderForm(w, r, http.StatusUnprocessableEntity, registerMeta, registerFormView(st), out.Notices...)
	})
}

// finishSubmit applies a login or register outcome. A superseded submission leaves the
// page to the newer one; a success navigates; a failure calls rerender.
func (h *UIHandlers) finishSubmit(w http.ResponseWriter, r *http.Request, out service.Outcome, rerender func()) {
	switch {
	case out.Superseded:
		if IsHTMX(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
	case out.Redirect != "":
		h.navigate(w, r, out.Redirect, out.Notices...)
	default:
		rerender()
	}
}

// renderForm renders a form page; htmx requests get only the form fragment.
func (h *UIHandlers) renderForm(w http.ResponseWriter, r *http.Request, status int, meta PageMeta, form any, notices ...domainauth.Notice) {
	data := NewTemplateData(r, meta).With("Form", form).Build()
	if IsHTMX(r) {
		HTMX(w).Toast(notices...)
		if err := h.T.Render(w, status, "auth-form", data); err != nil {
			h.renderTemplateError(w, r, err)
		}
		return
	}
	h.renderPage(w, r, status, data, notices...)
}

// rateLimited answers a throttled login or register submission.
func (h *UIHandlers) rateLimited(w http.ResponseWriter, r *http.Request) {
	notice := domainauth.Notice{Message: MsgTooManyAttempts, Kind: domainauth.NoticeError}
	if IsHTMX(r) {
		HTMX(w).Toast(notice)
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	meta, view := loginMeta, loginFormView(formState{formError: MsgTooManyAttempts})
	if r.URL.Path == domainauth.PathRegister {
		meta, view = registerMeta, registerFormView(formState{formError: MsgTooManyAttempts})
	}
	data := NewTemplateData(r, meta).With("Form", view).Build()
	h.renderPage(w, r, http.StatusTooManyRequests, data)
}

// MsgTooManyAttempts is shown when login or register submissions are throttled.
const MsgTooManyAttempts = "Too many attempts. Please wait a moment and try again."
