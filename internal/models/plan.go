package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Billing cycles
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// Plan represents a billing plan an organization subscribes to.
type Plan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Price        float64            `bson:"price" json:"price"`
	Currency     string             `bson:"currency" json:"currency"`
	BillingCycle string             `bson:"billingCycle" json:"billingCycle"`
	MaxMachines  int                `bson:"maxMachines" json:"maxMachines"`
	MaxUsers     int                `bson:"maxUsers" json:"maxUsers"`
	Features     map[string]bool    `bson:"features" json:"features"`
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
