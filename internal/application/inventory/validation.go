package inventory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("inbound_kind", func(fl validator.FieldLevel) bool {
			return entity.MovementKind(fl.Field().String()).IsInbound()
		})
		_ = validate.RegisterValidation("outbound_kind", func(fl validator.FieldLevel) bool {
			return entity.MovementKind(fl.Field().String()).IsOutbound()
		})
	})
	return validate
}

// validateInput valida el struct con tags `validate` y traduce las violaciones a domain.ErrInvalidInput.
func validateInput(in any) error {
	err := getValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", e.Field(), e.Tag()))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
