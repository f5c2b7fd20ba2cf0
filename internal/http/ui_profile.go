package httpx

import (
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	"github.com/target/profile-portal/internal/http/ui/viewmodel"
	"github.com/target/profile-portal/internal/http/uiutil"
	"github.com/target/profile-portal/internal/service"
)

var profileMeta = PageMeta{Title: "Profile", PageTitle: "Your Profile", CurrentPage: PageProfile}

// Root sends the browser to the profile when a user is held and to the login form otherwise.
func (h *UIHandlers) Root(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r)
	out := sess.Initialize(r.Context(), r.URL.Path)

	target := domainauth.PathLogin
	if sess.Snapshot().Authenticated() {
		target = domainauth.PathProfile
	}
	h.navigate(w, r, target, out.Notices...)
}

// Profile restores the session if needed and renders the profile view.
func (h *UIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r)
	out := sess.Initialize(r.Context(), r.URL.Path)
	if out.Redirect != "" {
		h.navigate(w, r, out.Redirect, out.Notices...)
		return
	}

	snap := sess.Snapshot()
	if !snap.Authenticated() && !snap.Loading {
		h.navigate(w, r, domainauth.PathLogin, out.Notices...)
		return
	}

	view := profileView(snap, viewerLocation(r))
	data := NewTemplateData(r, profileMeta).With("Profile", view).Build()
	h.renderPage(w, r, http.StatusOK, data, out.Notices...)
}

// Logout ends the session and returns to the login form. It always succeeds.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	out := SessionFrom(r).Logout(r.Context())
	h.navigate(w, r, out.Redirect, out.Notices...)
}

// profileView derives the profile view from the session state: a spinner while an
// operation is in flight, the user's details when one is held, the anonymous card otherwise.
func profileView(snap service.Snapshot, loc *time.Location) viewmodel.Profile {
	switch {
	case snap.Loading:
		return viewmodel.Profile{State: viewmodel.ProfileLoading}
	case snap.User == nil:
		return viewmodel.Profile{State: viewmodel.ProfileAnonymous}
	}

	u := snap.User
	p := viewmodel.Profile{
		State:    viewmodel.ProfileUser,
		Name:     u.Name,
		Username: u.Username,
		JoinedAt: uiutil.FormatFullDateTime(u.CreatedAt, loc),
	}
	if !u.CreatedAt.IsZero() {
		p.JoinedAtISO = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

// viewerLocation reads the browser's time zone from the tz cookie.
func viewerLocation(r *http.Request) *time.Location {
	c, err := r.Cookie(TimeZoneCookie)
	if err != nil {
		return time.UTC
	}
	name, err := url.QueryUnescape(c.Value)
	if err != nil {
		return time.UTC
	}
	return uiutil.LocationFromName(name)
}
