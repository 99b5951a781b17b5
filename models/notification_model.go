package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification channels.
const (
	ChannelEmail    = "email"
	ChannelPush     = "push"
	ChannelInApp    = "inapp"
	ChannelRealtime = "realtime"
)

// DeliveryResult records the outcome of one channel attempt. Failures on
// one channel never block the others, so each gets its own record.
type DeliveryResult struct {
	Channel   string    `bson:"channel" json:"channel"`
	Delivered bool      `bson:"delivered" json:"delivered"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	At        time.Time `bson:"at" json:"at"`
}

// Notification is the durable in-app record. It is persisted even when
// every external channel fails, so the inbox stays complete.
type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Type       string             `bson:"type" json:"type"`
	Title      string             `bson:"title" json:"title"`
	Message    string             `bson:"message" json:"message"`
	Data       bson.M             `bson:"data,omitempty" json:"data,omitempty"`
	Deliveries []DeliveryResult   `bson:"deliveries" json:"deliveries"`
	Read       bool               `bson:"read" json:"read"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
