package model

import "time"

// User is a row of the `users` table. Username and Email are stored trimmed
// and lowercased and are unique across all choirs. A nil ChoirID marks a
// tenant-less (global) account.
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Name           string     `json:"name"`
	Role           Role       `json:"role"`
	ChoirID        *string    `json:"choirId,omitempty"`
	Instrument     string     `json:"instrument,omitempty"`
	LastAccessAt   *time.Time `json:"lastAccessAt,omitempty"`
	ThemeID        *string    `json:"themeId,omitempty"`
	PushToken      *string    `json:"-"`
	AvatarPublicID *string    `json:"-"`
	AvatarURL      *string    `json:"avatarUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserView is the sanitized projection returned to clients. The tenant
// reference is flattened into tenantId/tenantName/tenantCode.
type UserView struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	Instrument   string     `json:"instrument,omitempty"`
	TenantID     *string    `json:"tenantId"`
	TenantName   string     `json:"tenantName,omitempty"`
	TenantCode   string     `json:"tenantCode,omitempty"`
	ThemeID      *string    `json:"themeId,omitempty"`
	AvatarURL    *string    `json:"avatarUrl,omitempty"`
	LastAccessAt *time.Time `json:"lastAccessAt,omitempty"`
}

// View builds the client projection of u. choir may be nil.
func (u User) View(choir *Choir) UserView {
	v := UserView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Instrument:   u.Instrument,
		TenantID:     u.ChoirID,
		ThemeID:      u.ThemeID,
		AvatarURL:    u.AvatarURL,
		LastAccessAt: u.LastAccessAt,
	}
	if choir != nil {
		v.TenantName = choir.Name
		v.TenantCode = choir.Code
	}
	return v
}

// Choir is a tenant. Code is the lowercase human-shareable key.
type Choir struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	LogoURL   *string   `json:"logoUrl,omitempty"`
	CreatedBy *string   `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RefreshToken mirrors `refresh_tokens`. Only the SHA-256 of the signed
// token is stored. Rows are deleted on logout and never updated.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
