package viewmodel

// Field is one labelled input of an auth form.
type Field struct {
	Name        string
	Label       string
	Type        string
	Placeholder string
	Value       string
	// Error is shown only once the field has been touched or the form was submitted.
	Error        string
	Touched      bool
	Autocomplete string
}

// ShowError reports whether the field's error should be rendered.
func (f Field) ShowError() bool {
	return f.Touched && f.Error != ""
}

// Form is the view of the login or register form.
type Form struct {
	ID          string
	Action      string
	ValidateURL string
	Submit      string
	Fields      []Field
	// FormError is the whole-form message from the last failed submission.
	FormError string
	// Pending disables the submit button while a submission is in flight.
	Pending  bool
	LinkText string
	LinkHref string
	LinkLead string
}

// Valid reports whether no field currently has an error.
func (f Form) Valid() bool {
	for _, fld := range f.Fields {
		if fld.Error != "" {
			return false
		}
	}
	return true
}
