package model

import "time"

// Stamp records who created and last touched a tenant-scoped record.
type Stamp struct {
	CreatedBy *string   `json:"createdBy,omitempty"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Song struct {
	ID       string  `json:"id"`
	ChoirID  *string `json:"choirId"`
	Title    string  `json:"title"`
	Composer string  `json:"composer,omitempty"`
	Lyrics   string  `json:"lyrics,omitempty"`
	Stamp
}

type Announcement struct {
	ID      string  `json:"id"`
	ChoirID *string `json:"choirId"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	Stamp
}

type Theme struct {
	ID        string  `json:"id"`
	ChoirID   *string `json:"choirId"`
	Name      string  `json:"name"`
	Primary   string  `json:"primary"`
	Secondary string  `json:"secondary"`
	Stamp
}

// ChoirSettings holds the single-slot selections of a choir. Exactly one
// featured song and one selected theme can exist because each is a single
// reference column, not a flag on every candidate row.
type ChoirSettings struct {
	ChoirID         string    `json:"choirId"`
	FeaturedSongID  *string   `json:"featuredSongId"`
	SelectedThemeID *string   `json:"selectedThemeId"`
	UpdatedBy       *string   `json:"updatedBy,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Instrument is a global catalog entry; it is not tenant scoped.
type Instrument struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Stamp
}

// AuditLog is a persisted audit record, one per mutating operation.
type AuditLog struct {
	ID         string    `json:"id"`
	ChoirID    *string   `json:"choirId"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId"`
	ActorID    string    `json:"actorId"`
	ActorName  string    `json:"actorName"`
	CreatedAt  time.Time `json:"createdAt"`
}
