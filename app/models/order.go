package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Delivery methods.
const (
	DeliveryMethodDelivery = "DELIVERY"
	DeliveryMethodTakeaway = "TAKEAWAY"
)

// Order item kinds.
const (
	ItemStandard = "standard"
	ItemCustom   = "custom"
)

// Order is a submitted purchase. Status only changes through the order
// service; Version guards concurrent transitions.
type Order struct {
	ID             string              `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint                `gorm:"not null;index" json:"userId"`
	User           *User               `gorm:"foreignKey:UserID" json:"-"`
	Customer       *Author             `gorm:"-" json:"user,omitempty"`
	Status         string              `gorm:"size:20;not null;index;default:PENDING" json:"status"`
	DeliveryMethod string              `gorm:"size:20;not null" json:"deliveryMethod"`
	Address        string              `gorm:"type:text" json:"address,omitempty"`
	Subtotal       decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DeliveryFee    decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"deliveryFee"`
	Total          decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"total"`
	ScheduledDate  *time.Time          `gorm:"index" json:"scheduledDate,omitempty"`
	Version        int                 `gorm:"not null;default:1" json:"version"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID" json:"items"`
	History        []OrderStatusChange `gorm:"foreignKey:OrderID" json:"history,omitempty"`
	CreatedAt      time.Time           `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

func (o *Order) AfterFind(*gorm.DB) error {
	o.Customer = AuthorOf(o.User)
	return nil
}

// OrderItem is one line of an order, written with it and never changed.
type OrderItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       string          `gorm:"size:36;not null;index" json:"orderId"`
	ProductID     *uint           `gorm:"index" json:"productId,omitempty"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Kind          string          `gorm:"size:20;not null;default:standard" json:"kind"`
	CustomOptions string          `gorm:"type:text" json:"customOptions,omitempty"`
	Image         string          `gorm:"size:500" json:"image,omitempty"`
}

// LineTotal is price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusChange is an append-only audit row. FromStatus is empty for
// the row written at creation.
type OrderStatusChange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    string    `gorm:"size:36;not null;index" json:"orderId"`
	FromStatus string    `gorm:"size:20" json:"fromStatus"`
	ToStatus   string    `gorm:"size:20;not null" json:"toStatus"`
	ActorID    uint      `json:"actorId"`
	CreatedAt  time.Time `json:"createdAt"`
}
