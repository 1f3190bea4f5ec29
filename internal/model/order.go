package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Delivered and canceled are sink states: delivered orders
// count toward sales reports, canceled orders are excluded.
const (
	OrderStatusOpen      = "open"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// Customer types.
const (
	CustomerTypeMale   = "male"
	CustomerTypeFemale = "female"
	CustomerTypeLegal  = "legal"
)

// Order sources.
const (
	OrderSourceInstagram = "instagram"
	OrderSourceWebsite   = "website"
	OrderSourcePhone     = "phone"
	OrderSourceInPerson  = "in_person"
	OrderSourceOther     = "other"
)

// ValidOrderStatus reports whether status is a known order status.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusOpen, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// ValidCustomerType reports whether customerType is a known customer type.
func ValidCustomerType(customerType string) bool {
	switch customerType {
	case CustomerTypeMale, CustomerTypeFemale, CustomerTypeLegal:
		return true
	}
	return false
}

// ValidOrderSource reports whether source is a known order source.
func ValidOrderSource(source string) bool {
	switch source {
	case OrderSourceInstagram, OrderSourceWebsite, OrderSourcePhone, OrderSourceInPerson, OrderSourceOther:
		return true
	}
	return false
}

// Order represents a customer order. TotalAmount is derived from the items and
// never settable directly. The code is generated once at first save and is not
// collision-checked.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	BusinessID      uint            `json:"business_id" gorm:"index;not null"`
	Code            string          `json:"order_code" gorm:"type:varchar(20);uniqueIndex;not null"`
	CustomerType    string          `json:"customer_type" gorm:"type:varchar(10)"`
	Source          string          `json:"source" gorm:"type:varchar(20)"`
	CustomerName    string          `json:"customer_name" gorm:"type:varchar(200)"`
	CustomerPhone   string          `json:"customer_phone" gorm:"type:varchar(15)"`
	CustomerAddress string          `json:"customer_address" gorm:"type:text"`
	OrderDate       time.Time       `json:"order_date"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	Description     string          `json:"description" gorm:"type:text"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(15,0);default:0"`
	Status          string          `json:"status" gorm:"type:varchar(10);default:'open'"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a single line of an order. Price and Cost are copied from the
// product at first save and frozen, so later product price changes do not
// rewrite historical orders. Subtotal and Profit are derived. Items are
// replaced as a full set on every order update.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"index;not null"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	Product   *Product        `json:"product_details,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(10,3);default:1"`
	Price     int64           `json:"price" gorm:"not null"`
	Cost      int64           `json:"cost" gorm:"not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(15,0);default:0"`
	Profit    decimal.Decimal `json:"profit" gorm:"type:decimal(15,0);default:0"`
}
