package checkout

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
)

// Philippine mobile numbers: exactly eleven digits starting with 09.
var phMobilePattern = regexp.MustCompile(`^09\d{9}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("ph_mobile", func(fl validator.FieldLevel) bool {
		return phMobilePattern.MatchString(fl.Field().String())
	})
	return v
}

// Shipping is the delivery information collected from the shopper before
// submission. Notes is the only optional field.
type Shipping struct {
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,ph_mobile"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Notes      string `json:"notes"`
}

var shippingFieldMessages = map[string]string{
	"FullName":   "full name is required",
	"Email":      "a valid email address is required",
	"Phone":      "phone must be an 11-digit number starting with 09",
	"Address":    "address is required",
	"City":       "city is required",
	"Province":   "province is required",
	"PostalCode": "postal code is required",
}

var shippingJSONNames = map[string]string{
	"FullName":   "full_name",
	"Email":      "email",
	"Phone":      "phone",
	"Address":    "address",
	"City":       "city",
	"Province":   "province",
	"PostalCode": "postal_code",
}

// validateShipping returns a validation error carrying one message per bad
// field, keyed by the field's wire name.
func validateShipping(shipping Shipping) error {
	err := validate.Struct(shipping)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping details invalid")
	}

	fields := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		name := shippingJSONNames[fe.StructField()]
		if name == "" {
			name = fe.Field()
		}
		message := shippingFieldMessages[fe.StructField()]
		if message == "" {
			message = "invalid value"
		}
		fields[name] = message
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "shipping details invalid").WithDetails(fields)
}
