package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PreStart is a pre-start safety checklist filled in by an operator before
// running a machine. Older clients reference the machine through maquinaId, so
// both fields are persisted.
type PreStart struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OperatorID   *primitive.ObjectID `bson:"operatorId,omitempty" json:"operatorId,omitempty"`
	OperatorName string              `bson:"operator" json:"operator"`
	MachineID    *primitive.ObjectID `bson:"machineId,omitempty" json:"machineId,omitempty"`
	MaquinaID    *primitive.ObjectID `bson:"maquinaId,omitempty" json:"maquinaId,omitempty"`
	TemplateID   *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"`
	Checks       map[string]bool     `bson:"checks" json:"checks"`
	Hours        float64             `bson:"hours,omitempty" json:"hours,omitempty"`
	Observations string              `bson:"observations,omitempty" json:"observations,omitempty"`
	Passed       bool                `bson:"passed" json:"passed"`
	Organization string              `bson:"organization" json:"organization"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Reconcile runs before every save. Whichever machine reference is set
// populates the other; when both are set and disagree machineId wins. Passed
// is recomputed from the checklist.
func (p *PreStart) Reconcile() {
	switch {
	case p.MachineID != nil:
		id := *p.MachineID
		p.MaquinaID = &id
	case p.MaquinaID != nil:
		id := *p.MaquinaID
		p.MachineID = &id
	}
	p.Passed = len(p.FailedChecks()) == 0
}

// FailedChecks returns the names of unchecked items in a stable order.
func (p *PreStart) FailedChecks() []string {
	var failed []string
	for name, ok := range p.Checks {
		if !ok {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}

// ChecklistTemplate is a named list of checklist items used to build pre-start forms.
type ChecklistTemplate struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Items        []string           `bson:"items" json:"items"`
	MachineType  string             `bson:"machineType,omitempty" json:"machineType,omitempty"`
	Organization string             `bson:"organization" json:"organization"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
