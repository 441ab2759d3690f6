// Package infraction records traffic infractions and serves the aggregated
// drunk-driving statistics consumed by the statistics office.
package infraction

import "time"

// Type enumerates recorded infraction categories.
type Type string

const (
	TypeDrunkDriving      Type = "DRUNK_DRIVING"
	TypeSpeeding          Type = "SPEEDING"
	TypeRedLight          Type = "RED_LIGHT"
	TypeIllegalParking    Type = "ILLEGAL_PARKING"
	TypeUnregisteredCar   Type = "UNREGISTERED_VEHICLE"
	TypeRecklessDriving   Type = "RECKLESS_DRIVING"
	TypeNoSeatbelt        Type = "NO_SEATBELT"
	TypePhoneWhileDriving Type = "PHONE_WHILE_DRIVING"
)

// ValidType reports whether t is a known infraction type.
func ValidType(t Type) bool {
	switch t {
	case TypeDrunkDriving, TypeSpeeding, TypeRedLight, TypeIllegalParking,
		TypeUnregisteredCar, TypeRecklessDriving, TypeNoSeatbelt, TypePhoneWhileDriving:
		return true
	}
	return false
}

// Infraction is one recorded offence.
type Infraction struct {
	ID            string    `json:"id"`
	DateTime      time.Time `json:"dateTime"`
	Municipality  string    `json:"municipality"`
	Description   string    `json:"description,omitempty"`
	PenaltyPoints int       `json:"penaltyPoints"`
	Fine          float64   `json:"fine"`
	Type          Type      `json:"type"`
}

// CreateDTO records a new infraction.
type CreateDTO struct {
	DateTime      time.Time `json:"dateTime"`
	Municipality  string    `json:"municipality"`
	Description   string    `json:"description,omitempty"`
	PenaltyPoints int       `json:"penaltyPoints"`
	Fine          float64   `json:"fine"`
	Type          Type      `json:"type"`
}

// UpdateDTO patches an infraction. Zero values leave the field unchanged.
type UpdateDTO struct {
	DateTime      time.Time `json:"dateTime,omitzero"`
	Municipality  string    `json:"municipality,omitempty"`
	Description   string    `json:"description,omitempty"`
	PenaltyPoints int       `json:"penaltyPoints,omitempty"`
	Fine          float64   `json:"fine,omitempty"`
	Type          Type      `json:"type,omitempty"`
}

// DuiBucket is one (municipality, type) group in the drunk-driving report.
type DuiBucket struct {
	Municipality string  `json:"municipality"`
	Type         Type    `json:"type"`
	Count        int     `json:"count"`
	TotalFine    float64 `json:"totalFine"`
	TotalPoints  int     `json:"totalPoints"`
}

// DuiStatistics is the aggregate served to the statistics office.
type DuiStatistics struct {
	Year    int         `json:"year"`
	Total   int         `json:"total"`
	Buckets []DuiBucket `json:"buckets"`
}
