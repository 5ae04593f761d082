package doctor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/medconnect/medconnect/internal/domain/booking"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		d      Doctor
		fields []string
	}{
		{"valid", Doctor{Name: " Dr. Rao ", Email: " Rao@Example.com", Specialization: "ENT"}, nil},
		{"missing all", Doctor{}, []string{"name", "email", "specialization"}},
		{"bad email", Doctor{Name: "a", Email: "nope", Specialization: "ENT"}, []string{"email"}},
		{"negative fee", Doctor{Name: "a", Email: "a@b", Specialization: "ENT", Fee: -1}, []string{"fee"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Normalize()
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.d.Email != "rao@example.com" || tt.d.Name != "Dr. Rao" {
					t.Errorf("expected trimmed values, got %q %q", tt.d.Name, tt.d.Email)
				}
				return
			}
			var ve *booking.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if fmt.Sprint(ve.Fields) != fmt.Sprint(tt.fields) {
				t.Errorf("expected %v, got %v", tt.fields, ve.Fields)
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	d := &Doctor{Email: "rao@example.com", Specialization: "Pediatric Cardiology", Gender: "Male", Hospital: HospitalWithID("Apollo Hospitals", "ap")}
	tests := []struct {
		f    Filter
		want bool
	}{
		{Filter{}, true},
		{Filter{Specialization: "cardio"}, true},
		{Filter{Hospital: "APOLLO"}, true},
		{Filter{Gender: "male"}, true},
		{Filter{Gender: "ma"}, false},
		{Filter{Email: "RAO@example.com"}, true},
		{Filter{Email: "rao@"}, false},
		{Filter{Hospital: "fortis"}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Matches(d); got != tt.want {
			t.Errorf("%+v: expected %v, got %v", tt.f, tt.want, got)
		}
	}
}
