package types

import "time"

// Reply is a comment under a post. A reply is always addressed by the
// (ID, PostID) pair; an ID alone never identifies a reply.
type Reply struct {
	ID        int       `json:"id"`
	PostID    int       `json:"postId"`
	Author    int       `json:"author"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
