package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FluidSpecs lists the fluids a machine runs on.
type FluidSpecs struct {
	EngineOil       string  `bson:"engineOil,omitempty" json:"engineOil,omitempty"`
	HydraulicOil    string  `bson:"hydraulicOil,omitempty" json:"hydraulicOil,omitempty"`
	TransmissionOil string  `bson:"transmissionOil,omitempty" json:"transmissionOil,omitempty"`
	Coolant         string  `bson:"coolant,omitempty" json:"coolant,omitempty"`
	FuelType        string  `bson:"fuelType,omitempty" json:"fuelType,omitempty"`
	FuelCapacity    float64 `bson:"fuelCapacity,omitempty" json:"fuelCapacity,omitempty"` // litres
}

// TireSpecs describes the tyres fitted to a machine.
type TireSpecs struct {
	Front    string  `bson:"front,omitempty" json:"front,omitempty"`
	Rear     string  `bson:"rear,omitempty" json:"rear,omitempty"`
	Pressure float64 `bson:"pressure,omitempty" json:"pressure,omitempty"` // psi
}

// Machine represents a piece of tracked machinery.
type Machine struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Brand        string              `bson:"brand" json:"brand"`
	Model        string              `bson:"model" json:"model"`
	SerialNumber string              `bson:"serialNumber" json:"serialNumber"`
	Type         string              `bson:"type" json:"type"`
	Year         int                 `bson:"year,omitempty" json:"year,omitempty"`
	Hours        float64             `bson:"hours" json:"hours"`
	Fluids       FluidSpecs          `bson:"fluids" json:"fluids"`
	Tires        TireSpecs           `bson:"tires" json:"tires"`
	Organization string              `bson:"organization" json:"organization"`
	OwnerID      *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Maquina is the legacy machine shape still present in the maquinas collection.
// It is read-only; new records are always written as Machine.
type Maquina struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Marca        string              `bson:"marca"`
	Modelo       string              `bson:"modelo"`
	NumeroSerie  string              `bson:"numeroSerie"`
	Tipo         string              `bson:"tipo"`
	Anio         int                 `bson:"anio"`
	Horometro    float64             `bson:"horometro"`
	AceiteMotor  string              `bson:"aceiteMotor"`
	AceiteHidr   string              `bson:"aceiteHidraulico"`
	AceiteTrans  string              `bson:"aceiteTransmision"`
	Refrigerante string              `bson:"refrigerante"`
	Combustible  string              `bson:"combustible"`
	Neumaticos   string              `bson:"neumaticos"`
	Presion      float64             `bson:"presionNeumaticos"`
	Organizacion string              `bson:"organizacion"`
	UsuarioID    *primitive.ObjectID `bson:"usuarioId,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

// ToMachine converts a legacy record into the canonical Machine shape.
func (m Maquina) ToMachine() Machine {
	return Machine{
		ID:           m.ID,
		Brand:        m.Marca,
		Model:        m.Modelo,
		SerialNumber: m.NumeroSerie,
		Type:         m.Tipo,
		Year:         m.Anio,
		Hours:        m.Horometro,
		Fluids: FluidSpecs{
			EngineOil:       m.AceiteMotor,
			HydraulicOil:    m.AceiteHidr,
			TransmissionOil: m.AceiteTrans,
			Coolant:         m.Refrigerante,
			FuelType:        m.Combustible,
		},
		Tires: TireSpecs{
			Front:    m.Neumaticos,
			Rear:     m.Neumaticos,
			Pressure: m.Presion,
		},
		Organization: m.Organizacion,
		OwnerID:      m.UsuarioID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PublicMachine is the subset of a machine exposed on the unauthenticated QR page.
type PublicMachine struct {
	ID           primitive.ObjectID `json:"id"`
	Brand        string             `json:"brand"`
	Model        string             `json:"model"`
	SerialNumber string             `json:"serialNumber"`
	Type         string             `json:"type"`
	Fluids       FluidSpecs         `json:"fluids"`
	Tires        TireSpecs          `json:"tires"`
}

// Public strips owner and organization details.
func (m Machine) Public() PublicMachine {
	return PublicMachine{
		ID:           m.ID,
		Brand:        m.Brand,
		Model:        m.Model,
		SerialNumber: m.SerialNumber,
		Type:         m.Type,
		Fluids:       m.Fluids,
		Tires:        m.Tires,
	}
}
