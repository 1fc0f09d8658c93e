package validation

import (
	"errors"
	"math"
	"testing"
)

type sample struct {
	Name  string   `validate:"required"`
	Score float64  `validate:"finite"`
	Tags  []string `validate:"min=1,dive,required"`
	Mode  string   `validate:"oneof=a b"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantTag string
	}{
		{"valid", sample{Name: "x", Score: 1, Tags: []string{"t"}, Mode: "a"}, ""},
		{"missing name", sample{Score: 1, Tags: []string{"t"}, Mode: "a"}, "required"},
		{"nan score", sample{Name: "x", Score: math.NaN(), Tags: []string{"t"}, Mode: "a"}, "finite"},
		{"inf score", sample{Name: "x", Score: math.Inf(-1), Tags: []string{"t"}, Mode: "a"}, "finite"},
		{"no tags", sample{Name: "x", Tags: []string{}, Mode: "a"}, "min"},
		{"bad mode", sample{Name: "x", Tags: []string{"t"}, Mode: "c"}, "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}
			var ve Errors
			if !errors.As(err, &ve) {
				t.Fatalf("Struct() error = %v, want Errors", err)
			}
			if ve[0].Tag != tt.wantTag {
				t.Errorf("tag = %q, want %q", ve[0].Tag, tt.wantTag)
			}
			if ve[0].Message == "" {
				t.Error("message is empty")
			}
		})
	}
}
