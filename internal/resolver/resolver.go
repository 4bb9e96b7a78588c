// Package resolver looks up a CustomerProfile for an accountId.
package resolver

import "github.com/yourorg/notification-gateway/internal/domain"

// Resolver maps an accountId to its contact profile. A transport error
// (HTTP timeout, DB error) is surfaced as "not found" at this boundary —
// the dispatch engine never retries resolution itself.
type Resolver interface {
	// Resolve returns the profile and true if found, or a zero profile and
	// false otherwise.
	Resolve(accountID int64) (domain.CustomerProfile, bool)
	// Close releases any held resources (HTTP transport, DB pool).
	Close() error
}
