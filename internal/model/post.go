package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedEntry is a post joined with its author's profile. Author.ID always equals Post.AuthorID.
type FeedEntry struct {
	Post   Post        `json:"post"`
	Author UserProfile `json:"author"`
}
