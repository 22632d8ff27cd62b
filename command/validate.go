package command

import (
	"fmt"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/validation"
)

// Validate checks every stage for values the operating system cannot accept.
func Validate(cmd Command) error {
	stages := Flatten(cmd)
	if len(stages) == 0 {
		return errors.NewBadArgument("Command", "validate", "empty command")
	}

	v := validation.New()
	for i, s := range stages {
		prefix := fmt.Sprintf("stages[%d]", i)
		v.Required(prefix+".name", s.Name).NoNUL(prefix+".name", s.Name).NoNUL(prefix+".dir", s.Dir)
		for j, a := range s.Args {
			v.NoNUL(fmt.Sprintf("%s.args[%d]", prefix, j), a)
		}
		for k, val := range s.Env {
			v.EnvName(prefix+".env", k).NoNUL(prefix+".env."+k, val)
		}
		v.Custom(s.Stdin.Kind != InputStream || s.Stdin.Stream != nil, prefix+".stdin", "stream input requires a stream")
		v.Custom(s.Stdout.Kind != OutputKindTransform || s.Stdout.Transform != nil, prefix+".stdout", "transform output requires a function")
	}
	if appErr := v.Validate(); appErr != nil {
		return &errors.BadArgument{Module: "Command", Method: "validate", Message: appErr.Message, Cause: appErr}
	}
	return nil
}
