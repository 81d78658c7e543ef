package enums

import (
	"fmt"
	"strings"
)

// VehicleCategory is the canonical product category for catalog entries.
type VehicleCategory string

const (
	VehicleCategoryEBike       VehicleCategory = "E-Bike"
	VehicleCategoryETrike      VehicleCategory = "E-Trike"
	VehicleCategoryEMotorcycle VehicleCategory = "E-Motorcycle"
	VehicleCategoryEScooter    VehicleCategory = "E-Scooter"
	VehicleCategoryECar        VehicleCategory = "E-Car"
)

var validVehicleCategories = []VehicleCategory{
	VehicleCategoryEBike,
	VehicleCategoryETrike,
	VehicleCategoryEMotorcycle,
	VehicleCategoryEScooter,
	VehicleCategoryECar,
}

// VehicleCategories returns the fixed category list, used verbatim as the
// fallback when the backend's category endpoint is unavailable.
func VehicleCategories() []VehicleCategory {
	out := make([]VehicleCategory, len(validVehicleCategories))
	copy(out, validVehicleCategories)
	return out
}

// IsValid reports whether the value matches the canonical category enum.
func (v VehicleCategory) IsValid() bool {
	for _, candidate := range validVehicleCategories {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleCategory converts the raw string to the canonical
// VehicleCategory, ignoring case so "e-bike" matches "E-Bike".
func ParseVehicleCategory(value string) (VehicleCategory, error) {
	for _, candidate := range validVehicleCategories {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle category %q", value)
}
