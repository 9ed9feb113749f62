package customvalidator

import (
	"reflect"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует кастомные правила валидации
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("serial_number", isSerialNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_future", isNotFutureDate); err != nil {
		return err
	}
	return nil
}

// isSerialNumber — серийные номера техники: латиница, цифры, дефис, 3-64 символа.
func isSerialNumber(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^[A-Za-z0-9\-]{3,64}$`)
	return re.MatchString(fl.Field().String())
}

// isNotFutureDate — дата покупки/списания не может быть в будущем.
func isNotFutureDate(fl validator.FieldLevel) bool {
	field := fl.Field()

	var t time.Time
	switch field.Kind() {
	case reflect.Struct:
		val, ok := field.Interface().(time.Time)
		if !ok {
			return true
		}
		t = val
	case reflect.String:
		parsed, err := time.Parse("2006-01-02", field.String())
		if err != nil {
			return false
		}
		t = parsed
	default:
		return true
	}

	if t.IsZero() {
		return true
	}
	return !t.After(time.Now())
}
