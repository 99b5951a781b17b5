package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
	OrderStatusRefunded   OrderStatus = "refunded"

	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// OrderItem is an immutable snapshot of what was bought: later edits to
// the product must not change what the order shows.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Brand     string             `bson:"brand" json:"brand"`
	Image     string             `bson:"image" json:"image"`
	Size      string             `bson:"size" json:"size"`
	Color     string             `bson:"color" json:"color"`
	SKU       string             `bson:"sku" json:"sku"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
	LineTotal float64            `bson:"lineTotal" json:"lineTotal"`
}

type PaymentAttempt struct {
	At     time.Time `bson:"at" json:"at"`
	Amount float64   `bson:"amount" json:"amount"`
	Status string    `bson:"status" json:"status"`
	Action string    `bson:"action" json:"action"`
}

type RefundRecord struct {
	RefundID string    `bson:"refundId" json:"refundId"`
	Amount   float64   `bson:"amount" json:"amount"`
	Reason   string    `bson:"reason,omitempty" json:"reason,omitempty"`
	At       time.Time `bson:"at" json:"at"`
}

// PaymentInfo tracks payment state independently of the order status.
type PaymentInfo struct {
	Method         string           `bson:"method" json:"method"`
	Status         PaymentStatus    `bson:"status" json:"status"`
	IntentID       string           `bson:"intentId,omitempty" json:"intentId,omitempty"`
	Attempts       []PaymentAttempt `bson:"attempts" json:"attempts"`
	Refunds        []RefundRecord   `bson:"refunds,omitempty" json:"refunds,omitempty"`
	AmountRefunded float64          `bson:"amountRefunded" json:"amountRefunded"`
	FailureCode    string           `bson:"failureCode,omitempty" json:"failureCode,omitempty"`
	FailureMessage string           `bson:"failureMessage,omitempty" json:"failureMessage,omitempty"`
}

type StatusChange struct {
	Status OrderStatus `bson:"status" json:"status"`
	At     time.Time   `bson:"at" json:"at"`
	Note   string      `bson:"note,omitempty" json:"note,omitempty"`
}

type ShippingAddress struct {
	FullName      string `bson:"fullName" json:"fullName"`
	StreetAddress string `bson:"streetAddress" json:"streetAddress"`
	City          string `bson:"city" json:"city"`
	State         string `bson:"state" json:"state"`
	ZipCode       string `bson:"zipCode" json:"zipCode"`
	Country       string `bson:"country" json:"country"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Order is the persisted aggregate. Pricing is computed once at creation
// and stored; it is never recomputed from the catalog afterwards. Orders
// are never hard-deleted: cancellation is a status.
type Order struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	Tax             float64            `bson:"tax" json:"tax"`
	ShippingCost    float64            `bson:"shippingCost" json:"shippingCost"`
	Discount        float64            `bson:"discount" json:"discount"`
	Total           float64            `bson:"total" json:"total"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	ShippingMethod  string             `bson:"shippingMethod" json:"shippingMethod"`
	Status          OrderStatus        `bson:"status" json:"status"`
	StatusHistory   []StatusChange     `bson:"statusHistory" json:"statusHistory"`
	Payment         PaymentInfo        `bson:"payment" json:"payment"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SetStatus transitions the order status and records the change.
func (o *Order) SetStatus(status OrderStatus, note string) {
	now := time.Now().UTC()
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusChange{Status: status, At: now, Note: note})
	o.UpdatedAt = now
}
