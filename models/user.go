package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`
	Password           string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	TotalContributions float64            `bson:"total_contributions" json:"totalContributions"`
	PaymentMethods     []PaymentMethod    `bson:"payment_methods,omitempty" json:"paymentMethods,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
}

// PaymentMethod holds a reference to a card tokenized by the payment
// processor. Raw card numbers and CVVs are never accepted or stored.
type PaymentMethod struct {
	Token       string    `bson:"token" json:"token"`
	Brand       string    `bson:"brand" json:"brand"`
	Last4       string    `bson:"last4" json:"last4"`
	ExpiryMonth int       `bson:"expiry_month" json:"expiryMonth"`
	ExpiryYear  int       `bson:"expiry_year" json:"expiryYear"`
	AddedAt     time.Time `bson:"added_at" json:"addedAt"`
}
