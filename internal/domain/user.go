package domain

import "time"

// User is a member of a tenant who can contribute to or edit newsletters.
// Identity is (tenant, username); the user's email address is
// username@tenant.
type User struct {
	Tenant      string    `json:"-"`
	Username    string    `json:"username"`
	IsEditor    bool      `json:"isEditor"`
	FirstName   string    `json:"firstName"`
	DisplayName string    `json:"displayName"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Email returns the user's email address.
func (u *User) Email() string {
	return u.Username + "@" + u.Tenant
}

// Recipient is a newsletter subscriber. It has no attributes beyond
// existence; membership is reconciled in bulk against uploaded lists.
type Recipient struct {
	Tenant string `json:"-"`
	Email  string `json:"email"`
}
