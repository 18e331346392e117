// Package typetoken validates the stable string identifiers the engine
// uses to gate edge and boundary-map compatibility. Type tokens are
// opaque to the engine beyond their equality; the only structural rule
// is the character set, enforced here so a malicious or corrupt
// serialized document cannot smuggle unsafe characters through to
// downstream consumers.
package typetoken

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("typetoken", func(fl validator.FieldLevel) bool {
			return Valid(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Valid reports whether s is composed exclusively of ASCII alphanumerics
// and '.', and is non-empty.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.':
		default:
			return false
		}
	}
	return true
}

// Check validates s character-by-character and returns a tagged
// *taskerrors.UnsafeTypeToken if it contains anything outside the
// alphanumeric+'.' alphabet.
func Check(s string) error {
	if !Valid(s) {
		return &taskerrors.UnsafeTypeToken{Value: s}
	}
	return nil
}

// ValidateStruct runs struct-tag validation (tag `validate:"typetoken"`)
// over v, surfacing the first failure as a *taskerrors.UnsafeTypeToken.
// Used at the manifest-loading boundary, where an atomic task manifest
// has just been decoded from bytes that may not have come from this
// process.
func ValidateStruct(v interface{}) error {
	if err := instance().Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return &taskerrors.UnsafeTypeToken{Value: fmt.Sprintf("%s=%v", fe.Namespace(), fe.Value())}
		}
		return err
	}
	return nil
}

// ValidateDeclared runs the same struct-tag validation as
// ValidateStruct but surfaces a failure as a *taskerrors.BadType: used
// at in-process input/output contract boundaries (a CompositeTask's
// own declared inputs and outputs), which is a distinct failure
// category from a type token arriving over the wire.
func ValidateDeclared(v interface{}) error {
	if err := instance().Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return &taskerrors.BadType{Value: fmt.Sprintf("%v", fe.Value())}
		}
		return err
	}
	return nil
}
