// package forms validates login and registration input before anything is sent
package forms

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// RegisterFailedMessage is shown when registration fails without a server message.
const RegisterFailedMessage = "Registration failed. Please try again."

var emailPattern = regexp.MustCompile(`(?i)^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// Errors maps field names to messages. An empty map means the form is valid.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// Err returns nil for a valid form, otherwise an error wrapping [shared.ErrInvalidInput] listing every field.
func (e Errors) Err() error {
	if e.Valid() {
		return nil
	}

	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, e[f])
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, strings.Join(parts, "; "))
}

// Login holds the login form fields.
type Login struct {
	Email    string
	Password string
}

// Validate checks the login fields.
func (l Login) Validate() Errors {
	errs := Errors{}
	switch {
	case l.Email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(l.Email):
		errs["email"] = "Please enter a valid email address"
	}
	if l.Password == "" {
		errs["password"] = "Password is required"
	}
	return errs
}

// Register holds the registration form fields.
type Register struct {
	Email    string
	UserName string
	Password string
}

// Validate checks the registration fields.
func (r Register) Validate() Errors {
	errs := Errors{}
	switch {
	case r.Email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(r.Email):
		errs["email"] = "Invalid email format"
	}
	if r.UserName == "" {
		errs["user_name"] = "Username is required"
	}
	switch {
	case r.Password == "":
		errs["password"] = "Password is required"
	case len(r.Password) < MinPasswordLength:
		errs["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	return errs
}

// Registration converts the form to the request body.
func (r Register) Registration() models.Registration {
	return models.Registration{Email: r.Email, UserName: r.UserName, Password: r.Password}
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
