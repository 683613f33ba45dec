package enums

import "fmt"

// ServiceType is the level of on-site service requested with a quote.
type ServiceType string

const (
	ServiceTypeFullService   ServiceType = "full-service"
	ServiceTypeDeliverySetup ServiceType = "delivery-setup"
	ServiceTypeDeliveryOnly  ServiceType = "delivery-only"
	ServiceTypeDropOff       ServiceType = "drop-off"
)

var validServiceTypes = []ServiceType{
	ServiceTypeFullService,
	ServiceTypeDeliverySetup,
	ServiceTypeDeliveryOnly,
	ServiceTypeDropOff,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceType.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into a ServiceType.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}

// Label returns the customer-facing name used on the service package line.
func (s ServiceType) Label() string {
	switch s {
	case ServiceTypeFullService:
		return "Full Service Catering"
	case ServiceTypeDeliverySetup:
		return "Delivery & Setup"
	case ServiceTypeDeliveryOnly:
		return "Delivery Only"
	case ServiceTypeDropOff:
		return "Drop-Off Service"
	default:
		return ""
	}
}
