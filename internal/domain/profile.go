package domain

import "strings"

// CustomerProfile is the resolved contact record for a notification's
// accountId. It is produced fresh per event by a resolver.Resolver — the
// dispatch engine never caches it.
type CustomerProfile struct {
	CustomerID int64
	AccountID  int64
	FirstName  string
	LastName   string
	Email      string
	Phone      string // E.164, e.g. "+2348031234567"
}

// FullName joins FirstName and LastName for templating.
func (p CustomerProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasEmail reports whether the profile carries a usable email address.
func (p CustomerProfile) HasEmail() bool {
	return strings.TrimSpace(p.Email) != ""
}

// HasPhone reports whether the profile carries a usable phone number.
func (p CustomerProfile) HasPhone() bool {
	return strings.TrimSpace(p.Phone) != ""
}
