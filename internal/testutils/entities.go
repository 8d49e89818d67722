// Package testutils provides shared record fixtures for tests.
package testutils

import "time"

// Post uses the timestamp marker scheme.
type Post struct {
	ID        int64      `db:"id"`
	Title     string     `db:"title"`
	DeletedAt *time.Time `db:"deleted_at" nullable:"true"`
}

func (p *Post) MarkerValue() any { return p.DeletedAt }

func (p *Post) SetMarkerValue(v any) {
	if v == nil {
		p.DeletedAt = nil
		return
	}
	p.DeletedAt = v.(*time.Time)
}

// Comment belongs to a Post; timestamp marker scheme.
type Comment struct {
	ID        int64      `db:"id"`
	PostID    int64      `db:"post_id"`
	Body      string     `db:"body"`
	DeletedAt *time.Time `db:"deleted_at" nullable:"true"`
}

func (c *Comment) MarkerValue() any { return c.DeletedAt }

func (c *Comment) SetMarkerValue(v any) {
	if v == nil {
		c.DeletedAt = nil
		return
	}
	c.DeletedAt = v.(*time.Time)
}

// Attachment belongs to a Comment; flag marker scheme.
type Attachment struct {
	ID        int64  `db:"id"`
	CommentID int64  `db:"comment_id"`
	FileName  string `db:"file_name"`
	Deleted   bool   `db:"is_deleted"`
}

func (a *Attachment) MarkerValue() any { return a.Deleted }

func (a *Attachment) SetMarkerValue(v any) {
	if v == nil {
		a.Deleted = false
		return
	}
	a.Deleted = v.(bool)
}

// AuditEntry does not opt into soft deletion.
type AuditEntry struct {
	ID     int64  `db:"id"`
	PostID int64  `db:"post_id"`
	Note   string `db:"note"`
}
