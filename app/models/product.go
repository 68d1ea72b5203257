package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry.
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:255;not null;index" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	LongDescription string          `gorm:"type:text" json:"longDescription"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category        string          `gorm:"size:100;index" json:"category"`
	Image           string          `gorm:"size:500" json:"image"`
	Sizes           StringList      `gorm:"type:text" json:"sizes"`
	Ingredients     StringList      `gorm:"type:text" json:"ingredients"`
	Allergens       StringList      `gorm:"type:text" json:"allergens"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// StringList is a []string stored as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("models: cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}
