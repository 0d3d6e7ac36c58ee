package core

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ContactRequest is the get-started form
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

// Validate returns per-field messages; an empty map means the form is valid
func (c ContactRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(c.Name) == "" {
		errs["name"] = "Name is required"
	}
	switch email := strings.TrimSpace(c.Email); {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Please enter a valid email address"
	}
	if strings.TrimSpace(c.Message) == "" {
		errs["message"] = "Message is required"
	}
	return errs
}

func contactFromEvent(e *Event) ContactRequest {
	return ContactRequest{
		Name:    e.Data["name"],
		Email:   e.Data["email"],
		Company: e.Data["company"],
		Message: e.Data["message"],
	}
}
