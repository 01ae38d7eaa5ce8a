package serverutils

import (
	"fmt"
	"strings"

	"ai-playbook-be/pkg/fault"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags on a request DTO and returns a
// validation fault listing the offending fields.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var invalid []string
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				invalid = append(invalid, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fault.Validation("invalid request: %s", strings.Join(invalid, ", "))
		}
		return fault.Validation("invalid request")
	}
	return nil
}
