package curius

import "fmt"

// Cache key schema, kept in one place so key shapes never drift between
// the client and the feed aggregator.

// ProfileKey caches a UserResponse by user-link slug.
func ProfileKey(handle string) string {
	return "profile:" + handle
}

// ContentKey caches a LinkResponse (first saved-links page) by user id.
func ContentKey(userID int64) string {
	return fmt.Sprintf("content:%d", userID)
}

// AllUsersKey caches the network-wide user directory.
func AllUsersKey() string {
	return "all_users"
}
