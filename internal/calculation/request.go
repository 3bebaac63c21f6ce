package calculation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rpgo/fiscal-projection/internal/domain"
)

// Upper bounds on a single run request.
const (
	MaxIterations = 10_000_000
	MaxHorizon    = 200
)

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
}

// RunRequest is one Monte Carlo invocation. A nil Seed means "draw from
// process entropy" and makes the run non-reproducible.
type RunRequest struct {
	Iterations int     `json:"iterations" validate:"gte=1,lte=10000000"`
	Horizon    int     `json:"horizon" validate:"gte=1,lte=200"`
	Seed       *uint64 `json:"seed,omitempty"`
}

// Validate reports the first malformed field as a *domain.ValidationError.
func (r RunRequest) Validate() error {
	err := requestValidate.Struct(r)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &domain.ValidationError{
			Field:  lowerFirst(fe.Field()),
			Value:  fe.Value(),
			Reason: fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param()),
		}
	}
	return &domain.ValidationError{Field: "request", Value: r, Reason: err.Error()}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
