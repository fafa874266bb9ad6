package domain

// Registration is an attendee's (name, email) pair recorded against one event.
// swagger:model Registration
type Registration struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewRegistration returns a Registration with the given attendee details.
func NewRegistration(name, email string) Registration {
	return Registration{Name: name, Email: email}
}
