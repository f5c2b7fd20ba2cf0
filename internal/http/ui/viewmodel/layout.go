package viewmodel

import domainauth "github.com/target/profile-portal/internal/domain/auth"

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	// Notices are shown as toasts when the page loads.
	Notices []domainauth.Notice
}
