// Package businessflow contains the core business logic for the charge console workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Charge route validation errors (checked before any backend call)
	ErrZoneNameRequired       = errors.New("zone name is required")
	ErrFromPointRequired      = errors.New("start point is required")
	ErrToPointRequired        = errors.New("end point is required")
	ErrPointsNotDistinct      = errors.New("start and end point must be distinct")
	ErrFlatBaseChargeRequired = errors.New("flat base charge is required")
	ErrFlatBaseChargeNegative = errors.New("flat base charge must be zero or greater")

	// Directory errors
	ErrChargeRouteNotFound = errors.New("charge route not found")
	ErrDeleteNotConfirmed  = errors.New("delete requires explicit confirmation")
	ErrSearchSuperseded    = errors.New("search superseded by a newer request")

	// Resolver errors
	ErrRouteNotSelected  = errors.New("select a route before choosing points")
	ErrRouteNotInCatalog = errors.New("route not found in the reference catalog")
	ErrPointNotOnRoute   = errors.New("point does not belong to the selected route")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsZoneNameRequired(err error) bool {
	return errors.Is(err, ErrZoneNameRequired)
}

func IsFromPointRequired(err error) bool {
	return errors.Is(err, ErrFromPointRequired)
}

func IsToPointRequired(err error) bool {
	return errors.Is(err, ErrToPointRequired)
}

func IsPointsNotDistinct(err error) bool {
	return errors.Is(err, ErrPointsNotDistinct)
}

func IsFlatBaseChargeRequired(err error) bool {
	return errors.Is(err, ErrFlatBaseChargeRequired)
}

func IsFlatBaseChargeNegative(err error) bool {
	return errors.Is(err, ErrFlatBaseChargeNegative)
}

func IsChargeRouteNotFound(err error) bool {
	return errors.Is(err, ErrChargeRouteNotFound)
}

func IsDeleteNotConfirmed(err error) bool {
	return errors.Is(err, ErrDeleteNotConfirmed)
}

func IsSearchSuperseded(err error) bool {
	return errors.Is(err, ErrSearchSuperseded)
}

func IsRouteNotSelected(err error) bool {
	return errors.Is(err, ErrRouteNotSelected)
}

func IsRouteNotInCatalog(err error) bool {
	return errors.Is(err, ErrRouteNotInCatalog)
}

func IsPointNotOnRoute(err error) bool {
	return errors.Is(err, ErrPointNotOnRoute)
}
