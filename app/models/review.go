package models

import (
	"time"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Review is a customer testimonial.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Author    *Author   `gorm:"-" json:"user,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (r *Review) AfterFind(*gorm.DB) error {
	if a := AuthorOf(r.User); a != nil {
		a.Email = ""
		r.Author = a
	}
	return nil
}

// CustomCake is a priced custom-cake quote. UserID is nil for guests.
type CustomCake struct {
	cake.Config `gorm:"embedded"`

	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    *uint           `gorm:"index" json:"userId,omitempty"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}
