package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UserTypeCustomer = "user"
	UserTypeAdmin    = "admin"
)

type User struct {
	Id                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	ImageUrl          string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Password          string             `bson:"password" json:"-"`
	Type              string             `bson:"type" json:"type"`
	GatewayCustomerID string             `bson:"gatewayCustomerId,omitempty" json:"-"`
	Cart              []CartItem         `bson:"cart" json:"cart"`
	NotificationPrefs map[string]bool    `bson:"notificationPrefs,omitempty" json:"notificationPrefs,omitempty"`
	PushSubscriptions []PushSubscription `bson:"pushSubscriptions,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// CartItem references a variant by product id plus size/color. Prices are
// never stored on the cart; checkout re-resolves them from the catalog.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Size      string             `bson:"size" json:"size"`
	Color     string             `bson:"color" json:"color"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// PushSubscription is a stored web-push endpoint for one browser.
type PushSubscription struct {
	Endpoint string `bson:"endpoint" json:"endpoint"`
	P256dh   string `bson:"p256dh" json:"p256dh"`
	Auth     string `bson:"auth" json:"auth"`
}

// ChannelEnabled reports whether the user accepts notifications on the
// given channel. Channels are opt-out: an absent key means enabled.
func (u *User) ChannelEnabled(channel string) bool {
	if u.NotificationPrefs == nil {
		return true
	}
	enabled, ok := u.NotificationPrefs[channel]
	if !ok {
		return true
	}
	return enabled
}
