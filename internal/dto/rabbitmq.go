package dto

import (
	"time"

	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/google/uuid"
)

type MQPostCreatedMsg struct {
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMQPostCreatedMsg(post *model.Post) MQPostCreatedMsg {
	return MQPostCreatedMsg{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	}
}
