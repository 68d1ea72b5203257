package models

import "time"

// Roles.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User is a storefront account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialised
	Role      string    `gorm:"size:20;not null;default:CUSTOMER" json:"role"`
	Address   string    `gorm:"type:text" json:"address,omitempty"`
	Phone     string    `gorm:"size:50" json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Author is the public subset of a User embedded in orders and reviews.
type Author struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// AuthorOf strips a user down to its public fields. A nil user yields nil.
func AuthorOf(u *User) *Author {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &Author{ID: u.ID, Name: u.Name, Email: u.Email}
}
