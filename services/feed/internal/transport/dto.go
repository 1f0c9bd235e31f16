package transport

import (
	"time"

	"github.com/Skotchmaster/ref_site/services/feed/internal/models"
)

// ActionRequest is the single POST shape; which fields matter depends on
// Action. Bound from JSON or from url-encoded/multipart forms.
type ActionRequest struct {
	Action   string `json:"action"   form:"action"`
	Token    string `json:"token"    form:"token"`
	ID       string `json:"id"       form:"id"`
	Title    string `json:"title"    form:"title"`
	Body     string `json:"body"     form:"body"`
	Password string `json:"password" form:"password"`
}

type PostDTO struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Body   string `json:"body"`
	TS     string `json:"ts"`
	Edited bool   `json:"edited,omitempty"`
}

func FromPost(p models.Post) PostDTO {
	return PostDTO{
		ID:     p.ID,
		Title:  p.Title,
		Body:   p.Body,
		TS:     p.CreatedAt.UTC().Format(time.RFC3339),
		Edited: p.Edited,
	}
}

func FromPosts(posts []models.Post) []PostDTO {
	out := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, FromPost(p))
	}
	return out
}
