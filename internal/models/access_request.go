package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessRequestStatus is the review state of an access request.
type AccessRequestStatus string

const (
	AccessPending  AccessRequestStatus = "pending"
	AccessApproved AccessRequestStatus = "approved"
	AccessRejected AccessRequestStatus = "rejected"
)

// AccessRequest is submitted from the public landing page by someone who wants an account.
type AccessRequest struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Company      string              `bson:"company" json:"company"`
	Message      string              `bson:"message,omitempty" json:"message,omitempty"`
	Status       AccessRequestStatus `bson:"status" json:"status"`
	TempPassword string              `bson:"tempPassword,omitempty" json:"-"`
	ReviewedBy   string              `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}
