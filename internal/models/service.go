package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceStatus is the lifecycle state of a maintenance service.
type ServiceStatus string

const (
	ServicePending    ServiceStatus = "Pending"
	ServiceInProgress ServiceStatus = "InProgress"
	ServiceCompleted  ServiceStatus = "Completed"
	ServiceCancelled  ServiceStatus = "Cancelled"
)

// IsValidServiceStatus checks if a status is one of the known values
func IsValidServiceStatus(s ServiceStatus) bool {
	switch s {
	case ServicePending, ServiceInProgress, ServiceCompleted, ServiceCancelled:
		return true
	default:
		return false
	}
}

// Part is a spare part consumed by a service.
type Part struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	UnitCost float64 `bson:"unitCost" json:"unitCost"`
}

// Service represents a maintenance service performed on a machine.
type Service struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MachineID     primitive.ObjectID  `bson:"machineId" json:"machineId"`
	TechnicianID  *primitive.ObjectID `bson:"technicianId,omitempty" json:"technicianId,omitempty"`
	Type          string              `bson:"type" json:"type"` // "preventive", "corrective", "inspection"
	Status        ServiceStatus       `bson:"status" json:"status"`
	Description   string              `bson:"description" json:"description"`
	ScheduledDate *time.Time          `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	CompletedDate *time.Time          `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	Hours         float64             `bson:"hours,omitempty" json:"hours,omitempty"`
	LaborCost     float64             `bson:"laborCost" json:"laborCost"`
	PartsCost     float64             `bson:"partsCost" json:"partsCost"`
	TotalCost     float64             `bson:"totalCost" json:"totalCost"`
	Parts         []Part              `bson:"parts" json:"parts"`
	RequestedBy   string              `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	ContactEmail  string              `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
	Organization  string              `bson:"organization" json:"organization"`
	ReminderSent  bool                `bson:"reminderSent" json:"-"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ComputeCosts derives the parts and total cost. When parts are listed their
// sum replaces any parts cost supplied by the client.
func (s *Service) ComputeCosts() {
	if len(s.Parts) > 0 {
		var sum float64
		for _, p := range s.Parts {
			sum += p.Quantity * p.UnitCost
		}
		s.PartsCost = sum
	}
	s.TotalCost = s.LaborCost + s.PartsCost
}
