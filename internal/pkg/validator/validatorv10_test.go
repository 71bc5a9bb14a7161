package validator

import (
	"errors"
	"testing"
)

type verifyPayload struct {
	PhoneNumber string `validate:"required"`
	Code        string `validate:"required,otpcode"`
}

func newValidator(t *testing.T) *V10Validator {
	t.Helper()

	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}
	return v
}

func TestValidatePasses(t *testing.T) {
	v := newValidator(t)

	if err := v.Validate(verifyPayload{PhoneNumber: "+6281234567890", Code: "042513"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidateReturnsSnakeCaseFieldErrors(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(verifyPayload{Code: "042513"})
	if err == nil {
		t.Fatal("Validate() expected an error for a missing phone number")
	}

	var fieldErrs V10ValidationError
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("Validate() error = %T, want V10ValidationError", err)
	}
	if _, ok := fieldErrs["phone_number"]; !ok {
		t.Errorf("field errors = %v, want a phone_number entry", fieldErrs)
	}
}

func TestValidateOTPCodeRule(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{name: "six digits", code: "123456", ok: true},
		{name: "leading zeros", code: "000042", ok: true},
		{name: "too short", code: "12345", ok: false},
		{name: "too long", code: "1234567", ok: false},
		{name: "letters", code: "12a456", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(verifyPayload{PhoneNumber: "+6281234567890", Code: tt.code})
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if !tt.ok && err == nil {
				t.Errorf("Validate() accepted code %q", tt.code)
			}
		})
	}
}
