// Package validation validates configuration and caller input.
//
// Struct tag validation (go-playground/validator) is used for configuration
// structs; field names are reported by their mapstructure key. The
// programmatic Validator collects errors for inputs that are not structs,
// such as command stages.
//
//	type Config struct {
//	    Backend string `mapstructure:"backend" validate:"oneof=memory file redis"`
//	}
//	err := validation.Validate(cfg)
package validation
