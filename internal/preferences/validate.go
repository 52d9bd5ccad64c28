package preferences

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidPreferences = errors.New("invalid preferences")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// rules mirrors the stored fields that carry constraints.
type rules struct {
	Difficulty    string  `json:"difficulty" validate:"required"`
	MinDistance   float64 `json:"min_distance" validate:"gte=0"`
	MaxDistance   float64 `json:"max_distance" validate:"gte=0,gtefield=MinDistance"`
	ElevationBand string  `json:"elevation_band" validate:"oneof=Low Moderate High"`
}

func validateRecord(rec Record) error {
	return check(rules{
		Difficulty:    rec.Difficulty,
		MinDistance:   rec.MinDistance,
		MaxDistance:   rec.MaxDistance,
		ElevationBand: string(rec.ElevationBand),
	})
}

func check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidPreferences, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gtefield":
		return field + " must not be less than min_distance"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
