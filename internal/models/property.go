package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OwnershipType string

const (
	OwnershipCompany    OwnershipType = "company"
	OwnershipThirdParty OwnershipType = "third_party"
)

type LoftStatus string

const (
	LoftAvailable   LoftStatus = "available"
	LoftOccupied    LoftStatus = "occupied"
	LoftMaintenance LoftStatus = "maintenance"
)

// ZoneArea groups lofts by neighbourhood.
type ZoneArea struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ZoneAreaInput struct {
	Name string `json:"name"`
}

func (in ZoneAreaInput) ZoneArea() (ZoneArea, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ZoneArea{}, invalid("name", "zone area name cannot be empty")
	}
	return ZoneArea{Name: name}, nil
}

// Owner is the party a loft belongs to.
type Owner struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Email         *string       `json:"email,omitempty"`
	Phone         *string       `json:"phone,omitempty"`
	Address       *string       `json:"address,omitempty"`
	OwnershipType OwnershipType `json:"ownership_type"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type OwnerInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	OwnershipType string `json:"ownership_type"`
}

func (in OwnerInput) Owner() (Owner, error) {
	o := Owner{
		Name:          strings.TrimSpace(in.Name),
		Email:         optional(in.Email),
		Phone:         optional(in.Phone),
		Address:       optional(in.Address),
		OwnershipType: OwnershipType(strings.TrimSpace(in.OwnershipType)),
	}
	if o.Name == "" {
		return Owner{}, invalid("name", "is required")
	}
	if o.Email != nil {
		if err := ValidateEmail(*o.Email); err != nil {
			return Owner{}, err
		}
	}
	switch o.OwnershipType {
	case "":
		o.OwnershipType = OwnershipThirdParty
	case OwnershipCompany, OwnershipThirdParty:
	default:
		return Owner{}, invalid("ownership_type", "must be company or third_party")
	}
	return o, nil
}

// Loft is a rentable unit. OwnerName and ZoneAreaName are filled on reads.
type Loft struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Description       *string         `json:"description,omitempty"`
	Address           string          `json:"address"`
	PricePerMonth     decimal.Decimal `json:"price_per_month"`
	Status            LoftStatus      `json:"status"`
	OwnerID           uuid.UUID       `json:"owner_id"`
	OwnerName         *string         `json:"owner_name,omitempty"`
	CompanyPercentage decimal.Decimal `json:"company_percentage"`
	OwnerPercentage   decimal.Decimal `json:"owner_percentage"`
	ZoneAreaID        *uuid.UUID      `json:"zone_area_id,omitempty"`
	ZoneAreaName      *string         `json:"zone_area_name,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type LoftInput struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Address           string          `json:"address"`
	PricePerMonth     decimal.Decimal `json:"price_per_month"`
	Status            string          `json:"status"`
	OwnerID           uuid.UUID       `json:"owner_id"`
	CompanyPercentage decimal.Decimal `json:"company_percentage"`
	OwnerPercentage   decimal.Decimal `json:"owner_percentage"`
	ZoneAreaID        *uuid.UUID      `json:"zone_area_id,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func (in LoftInput) Loft() (Loft, error) {
	l := Loft{
		Name:              strings.TrimSpace(in.Name),
		Description:       optional(in.Description),
		Address:           strings.TrimSpace(in.Address),
		PricePerMonth:     in.PricePerMonth,
		Status:            LoftStatus(strings.TrimSpace(in.Status)),
		OwnerID:           in.OwnerID,
		CompanyPercentage: in.CompanyPercentage,
		OwnerPercentage:   in.OwnerPercentage,
		ZoneAreaID:        nonNilUUID(in.ZoneAreaID),
	}
	switch {
	case l.Name == "":
		return Loft{}, invalid("name", "name is required")
	case l.Address == "":
		return Loft{}, invalid("address", "address is required")
	case l.PricePerMonth.IsNegative():
		return Loft{}, invalid("price_per_month", "price must be a positive number")
	case l.OwnerID == uuid.Nil:
		return Loft{}, invalid("owner_id", "owner is required")
	}
	if err := percentage("company_percentage", l.CompanyPercentage); err != nil {
		return Loft{}, err
	}
	if err := percentage("owner_percentage", l.OwnerPercentage); err != nil {
		return Loft{}, err
	}
	switch l.Status {
	case "":
		l.Status = LoftAvailable
	case LoftAvailable, LoftOccupied, LoftMaintenance:
	default:
		return Loft{}, invalid("status", "must be available, occupied or maintenance")
	}
	return l, nil
}

func percentage(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return invalid(field, "must be between 0 and 100")
	}
	if !v.Equal(v.Round(2)) {
		return invalid(field, "must have at most two decimal places")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
