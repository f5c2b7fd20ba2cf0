package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageLogin    = "login"
	PageRegister = "register"
	PageProfile  = "profile"
	PageNotFound = "not-found"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Cookie and form names shared by middleware, handlers and templates.
const (
	// TimeZoneCookie holds the browser's IANA time zone, set by app.js.
	TimeZoneCookie = "tz"
	// TouchedField lists the fields the user has interacted with, for live validation.
	TouchedField = "touched"
	// ToastEvent is the client-side event that shows notices after an htmx swap.
	ToastEvent = "showToast"
)

// ContentTemplateMap maps page identifiers to their content template names.
func ContentTemplateMap() map[string]string {
	return map[string]string{
		PageLogin:    "login-content",
		PageRegister: "register-content",
		PageProfile:  "profile-content",
		PageNotFound: "not-found-content",
	}
}

// ContentTemplateFor returns the content template for a page, defaulting to the 404 content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
