package models

import (
	"errors"
	"strings"
	"testing"
)

func TestResolutionValidate(t *testing.T) {
	valid := &Resolution{Template: "host_alerts", Query: "AlertEvents"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid resolution, got %v", err)
	}

	err := (&Resolution{Template: "  "}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) || len(verrs.Errors) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
	if !strings.Contains(err.Error(), "template: template is required") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
