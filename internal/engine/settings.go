package engine

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/layout"
)

// Gravity bounds accepted by ValidateSettings.
const (
	MinGravity = 0.0
	MaxGravity = 5.0
)

// ValidateSettings checks display settings. Failures wrap apperr.ErrInvalidSettings.
func ValidateSettings(s layout.Settings) error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Gravity, validation.Min(MinGravity), validation.Max(MaxGravity)),
		validation.Field(&s.Profile, validation.By(func(v any) error {
			_, err := layout.ParseProfile(string(v.(layout.Profile)))
			return err
		})),
	)
	if err != nil {
		return fmt.Errorf("engine: %w: %w", apperr.ErrInvalidSettings, err)
	}
	return nil
}
