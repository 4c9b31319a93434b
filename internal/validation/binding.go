package validation

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	TagEmail = "email_shape"
	TagPhone = "phone"
)

// RegisterGinRules exposes the email and phone rules as struct tags on gin's
// default binding validator so BindJSON can report them per field.
func RegisterGinRules(v *Validator) error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)

	if !ok {
		return errors.New("validation: gin binding engine is not go-playground/validator")
	}

	return RegisterRules(engine, v)
}

func RegisterRules(engine *validator.Validate, v *Validator) error {
	err := engine.RegisterValidation(TagEmail, func(fl validator.FieldLevel) bool {
		_, err := v.Email(fl.Field().String())
		return err == nil
	})

	if err != nil {
		return err
	}

	return engine.RegisterValidation(TagPhone, func(fl validator.FieldLevel) bool {
		_, err := v.Phone(fl.Field().String())
		return err == nil
	})
}
