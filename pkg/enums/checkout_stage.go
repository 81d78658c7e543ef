package enums

import "fmt"

// CheckoutStage is the state the checkout flow sits in: collecting login
// credentials, collecting a new registration, or authenticated and able to
// submit an order.
type CheckoutStage string

const (
	CheckoutStageLogin         CheckoutStage = "login"
	CheckoutStageRegister      CheckoutStage = "register"
	CheckoutStageAuthenticated CheckoutStage = "authenticated"
)

var validCheckoutStages = []CheckoutStage{
	CheckoutStageLogin,
	CheckoutStageRegister,
	CheckoutStageAuthenticated,
}

// IsValid reports whether the value matches the canonical checkout stage enum.
func (c CheckoutStage) IsValid() bool {
	for _, candidate := range validCheckoutStages {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStage converts the raw string to CheckoutStage.
func ParseCheckoutStage(value string) (CheckoutStage, error) {
	for _, candidate := range validCheckoutStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout stage %q", value)
}
