package types

import "time"

// Post is a top-level forum post. Username is the author's display name,
// joined from the users table on every read.
type Post struct {
	ID        int       `json:"id"`
	Author    int       `json:"author"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
