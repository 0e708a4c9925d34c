package domain

import "time"

// Comment belongs to a ticket. Deletion is soft.
type Comment struct {
	ID         string
	TicketID   string
	Text       string
	AuthorID   string
	AuthorRole Role
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	Deleted    bool
	DeletedAt  *time.Time
}

// TicketFile is an attachment stored in object storage.
type TicketFile struct {
	ID           string
	TicketID     string
	Path         string
	OriginalName string
	FileType     string
	SizeBytes    int64
	UploadedBy   string
	UploadedAt   time.Time
}
