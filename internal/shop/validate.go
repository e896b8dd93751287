package shop

import (
	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/common/validation"
)

func Validate(s *Shop) *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", s.Name).Required().MaxLength(120)
	v.Field("code", s.Code).Required().MaxLength(32)
	v.Field("status", string(s.Status)).Required().OneOf(string(StatusActive), string(StatusInactive))
	return v.Validate()
}
