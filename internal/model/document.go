package model

// Document is a note whose content the correction flow reads and rewrites.
type Document struct {
	ID      string `json:"id" db:"id"`
	UserID  string `json:"user_id" db:"user_id"`
	Title   string `json:"title" db:"title"`
	Content string `json:"content" db:"content"`
	State   int    `json:"state" db:"state"`
	Ctime   int64  `json:"ctime" db:"ctime"`
	Mtime   int64  `json:"mtime" db:"mtime"`
}
