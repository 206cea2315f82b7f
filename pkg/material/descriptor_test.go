package material

import (
	"errors"
	"testing"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		desc        Descriptor
		expectedErr error
	}{
		{"lambertian", Descriptor{Kind: "lambertian", Albedo: [3]float64{0.8, 0.3, 0.3}}, nil},
		{"case insensitive", Descriptor{Kind: "Lambertian", Albedo: [3]float64{0.1, 0.2, 0.3}}, nil},
		{"diffuse alias", Descriptor{Kind: "diffuse", Albedo: [3]float64{1, 1, 1}}, nil},
		{"unknown kind", Descriptor{Kind: "metal"}, ErrUnknownMaterial},
		{"empty kind", Descriptor{}, ErrUnknownMaterial},
		{"albedo above one", Descriptor{Kind: "lambertian", Albedo: [3]float64{1.5, 0, 0}}, ErrInvalidMaterial},
		{"negative albedo", Descriptor{Kind: "lambertian", Albedo: [3]float64{0, -0.1, 0}}, ErrInvalidMaterial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat, err := New(tt.desc)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("Expected %v, got %v", tt.expectedErr, err)
				}
				if mat != nil {
					t.Errorf("Expected nil material on error, got %T", mat)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			lambertian, ok := mat.(*Lambertian)
			if !ok {
				t.Fatalf("Expected *Lambertian, got %T", mat)
			}
			expected := core.NewVec3(tt.desc.Albedo[0], tt.desc.Albedo[1], tt.desc.Albedo[2])
			if lambertian.Albedo != expected {
				t.Errorf("Expected albedo %v, got %v", expected, lambertian.Albedo)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	desc, ok := Describe(NewLambertian(core.NewVec3(0.1, 0.2, 0.3)))
	if !ok {
		t.Fatal("Expected lambertian to be describable")
	}
	if desc.Kind != KindLambertian || desc.Albedo != [3]float64{0.1, 0.2, 0.3} {
		t.Errorf("Unexpected descriptor %+v", desc)
	}

	if _, ok := Describe(nil); ok {
		t.Error("Expected nil material to be undescribable")
	}
}
