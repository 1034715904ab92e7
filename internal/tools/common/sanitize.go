package common

import (
	"errors"
	"fmt"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

// Scrubbed maps an error to a fixed category phrase. Some operations handle
// content the caller should never see echoed back on failure (attachment
// bytes, thread identifiers, upstream error text that may quote them), so
// their tool handlers report only the category.
func Scrubbed(operation string, err error) string {
	var (
		configErr     *errs.ConfigError
		validationErr *errs.ValidationError
		authErr       *errs.AuthError
		networkErr    *errs.NetworkError
		protocolErr   *errs.ProtocolError
		notFoundErr   *errs.NotFoundError
		capErr        *errs.CapabilityError
	)

	category := "internal error"
	switch {
	case errors.As(err, &configErr):
		category = "configuration error"
	case errors.As(err, &validationErr):
		category = "invalid arguments"
	case errors.As(err, &authErr):
		category = "authentication rejected"
	case errors.As(err, &networkErr):
		category = "network failure"
	case errors.As(err, &protocolErr):
		category = "backend rejected the request"
	case errors.As(err, &notFoundErr):
		category = "not found"
	case errors.As(err, &capErr):
		category = "capability not available"
	}
	return fmt.Sprintf("%s failed: %s", operation, category)
}
