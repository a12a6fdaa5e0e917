package redisrepo

import "fmt"

const (
	POST_GUARD_KEY = "post-guard:%s" // <authorID>
)

func PostGuardKey(authorID string) string {
	return fmt.Sprintf(POST_GUARD_KEY, authorID)
}
