package profiles

import "io"

// PhotoUpload is a profile photo received with the create request.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateProfileInput is the lawyer registration form.
// Specializations are names from the fixed set, matched case-insensitively.
type CreateProfileInput struct {
	Name              string
	Age               int
	BarLicenseNo      *string
	BarAssociation    string
	YearsOfPractice   int
	Specializations   []string
	MobileNo          string
	City              string
	PreferredLanguage string
	Bio               string

	Photo *PhotoUpload
}
