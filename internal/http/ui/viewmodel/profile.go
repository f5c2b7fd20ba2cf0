package viewmodel

// ProfileState selects which variant of the profile view is rendered.
type ProfileState string

const (
	ProfileLoading   ProfileState = "loading"
	ProfileAnonymous ProfileState = "anonymous"
	ProfileUser      ProfileState = "user"
)

// Profile is the view of the profile page.
type Profile struct {
	State    ProfileState
	Name     string
	Username string
	// JoinedAt is the account creation time, already formatted for display.
	JoinedAt string
	// JoinedAtISO is the RFC 3339 form used for the <time> element.
	JoinedAtISO string
}
