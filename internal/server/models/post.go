package models

import (
	"strings"
	"time"
)

// Creator is the owner of a post as seen by readers.
type Creator struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Post is a content item. Creator is fixed at creation time.
type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostPage is one page of the newest-first post listing. TotalPosts counts
// every post, not only the ones on this page.
type PostPage struct {
	Posts      []*Post `json:"posts"`
	TotalPosts int     `json:"totalPosts"`
}

// ImageKeyPrefix is the object key prefix for images uploaded by userID.
func ImageKeyPrefix(userID string) string {
	return "posts/" + userID + "/"
}

// OwnsImageKey reports whether key was issued to userID.
func OwnsImageKey(userID, key string) bool {
	prefix := ImageKeyPrefix(userID)
	return userID != "" && len(key) > len(prefix) && strings.HasPrefix(key, prefix)
}
