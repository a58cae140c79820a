// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует кастомные правила валидации
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("serial_number", isSerialNumberValid); err != nil {
		return err
	}
	if err := v.RegisterValidation("date_not_past", isDateNotPast); err != nil {
		return err
	}
	return nil
}

// Серийный номер: латиница, цифры и дефисы, от 3 до 64 символов.
func isSerialNumberValid(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{2,63}$`)
	return re.MatchString(fl.Field().String())
}

// Дата не в прошлом относительно момента проверки (сравниваем по дням,
// чтобы заявка, поданная вечером на сегодня, не отклонялась).
func isDateNotPast(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	today := time.Now().Truncate(24 * time.Hour)
	return !value.Truncate(24 * time.Hour).Before(today)
}
