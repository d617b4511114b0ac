package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operator types
const (
	OperatorTypeOperator   = "operator"
	OperatorTypeTechnician = "technician"
)

// Operator represents a person who runs or services machines. Operators do not
// necessarily have a dashboard account.
type Operator struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Type          string             `bson:"type" json:"type"`
	License       string             `bson:"license,omitempty" json:"license,omitempty"`
	LicenseExpiry *time.Time         `bson:"licenseExpiry,omitempty" json:"licenseExpiry,omitempty"`
	Active        bool               `bson:"active" json:"active"`
	Organization  string             `bson:"organization" json:"organization"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsValidOperatorType checks if an operator type is valid
func IsValidOperatorType(t string) bool {
	return t == OperatorTypeOperator || t == OperatorTypeTechnician
}
