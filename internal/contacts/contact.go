// Package contacts stores the records edited by the click-to-edit example.
package contacts

import (
	"net/mail"
	"strings"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

// Contact is one editable record.
type Contact struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Seed is the data every reset restores.
var Seed = []Contact{
	{ID: 1, FirstName: "Joe", LastName: "Blow", Email: "joe@blow.com"},
	{ID: 2, FirstName: "Angie", LastName: "MacDowell", Email: "angie@macdowell.org"},
	{ID: 3, FirstName: "Fuqua", LastName: "Tarkenton", Email: "fuqua@tarkenton.org"},
}

// Normalize trims every field.
func (c *Contact) Normalize() {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
}

// Validate returns the problems keyed by form field, or nil.
func (c Contact) Validate() map[string]string {
	problems := map[string]string{}
	if c.Email == "" {
		problems["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(c.Email); err != nil {
		problems["email"] = "Email is not a valid address"
	}
	if len(c.FirstName) > 100 {
		problems["first_name"] = "First name is too long"
	}
	if len(c.LastName) > 100 {
		problems["last_name"] = "Last name is too long"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// ValidationError wraps field problems into a classified error.
func ValidationError(problems map[string]string) error {
	return derrors.ValidationError("invalid contact").WithContext("fields", problems).Build()
}
