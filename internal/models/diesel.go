package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DieselTank represents an on-site fuel tank.
type DieselTank struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Capacity     float64            `bson:"capacity" json:"capacity"`         // litres
	CurrentLevel float64            `bson:"currentLevel" json:"currentLevel"` // litres
	Location     string             `bson:"location" json:"location"`
	Organization string             `bson:"organization" json:"organization"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FillPercent returns the current level as a percentage of capacity.
func (t DieselTank) FillPercent() float64 {
	if t.Capacity <= 0 {
		return 0
	}
	return t.CurrentLevel / t.Capacity * 100
}
