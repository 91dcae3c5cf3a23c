package cache

import "fmt"

// RateLimitKey scopes a fixed-window counter to one route and user.
func RateLimitKey(scope, userID string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, userID)
}

// ConnectionsKey holds a user's cached connection summary.
func ConnectionsKey(userID string) string {
	return fmt.Sprintf("connections:%s", userID)
}
