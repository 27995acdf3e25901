package design

import (
	"strings"
	"testing"
)

func TestStrengthBounds(t *testing.T) {
	for intensity := 0; intensity <= 100; intensity++ {
		s := Strength(intensity)
		if s < 0.30 || s > 0.80 {
			t.Fatalf("Strength(%d) = %v, outside [0.30, 0.80]", intensity, s)
		}
	}
}

func TestStrengthEndpoints(t *testing.T) {
	if s := Strength(0); s != 0.30 {
		t.Fatalf("Strength(0) = %v, want 0.30", s)
	}
	if s := Strength(100); s != 0.80 {
		t.Fatalf("Strength(100) = %v, want 0.80", s)
	}
	if s := Strength(50); s != 0.55 {
		t.Fatalf("Strength(50) = %v, want 0.55", s)
	}
}

func TestStrengthMonotonic(t *testing.T) {
	prev := Strength(0)
	for intensity := 1; intensity <= 100; intensity++ {
		s := Strength(intensity)
		if s < prev {
			t.Fatalf("Strength(%d) = %v < Strength(%d) = %v", intensity, s, intensity-1, prev)
		}
		prev = s
	}
}

func TestStrengthClampsOutOfRangeIntensity(t *testing.T) {
	if s := Strength(-20); s != 0.30 {
		t.Fatalf("Strength(-20) = %v, want clamped 0.30", s)
	}
	if s := Strength(250); s != 0.80 {
		t.Fatalf("Strength(250) = %v, want clamped 0.80", s)
	}
}

func TestComposeDeterministic(t *testing.T) {
	a := Compose("boho", "Living Room", "add a rug", 75)
	b := Compose("boho", "Living Room", "add a rug", 75)
	if a != b {
		t.Fatalf("Compose is not deterministic: %#v vs %#v", a, b)
	}
}

func TestComposeKnownStyle(t *testing.T) {
	p := Compose("industrial", "Office", "more leather", 40)
	if !strings.Contains(p.Positive, "Office") {
		t.Fatalf("positive prompt missing room type: %q", p.Positive)
	}
	if !strings.Contains(p.Positive, "industrial loft interior") {
		t.Fatalf("positive prompt missing style description: %q", p.Positive)
	}
	if !strings.Contains(p.Positive, "more leather") {
		t.Fatalf("positive prompt missing instruction: %q", p.Positive)
	}
	if !strings.Contains(p.Positive, "retaining original room geometry") {
		t.Fatalf("positive prompt missing structure clause: %q", p.Positive)
	}
	if !strings.HasPrefix(p.Positive, "Professional interior design photography of a ") {
		t.Fatalf("positive prompt missing preamble: %q", p.Positive)
	}
}

func TestComposeUnknownStyleFallsBack(t *testing.T) {
	p := Compose("japandi", "Bedroom", "", 50)
	if !strings.Contains(p.Positive, "japandi style") {
		t.Fatalf("unknown style not rendered literally: %q", p.Positive)
	}
}

func TestComposeNegativePromptIsConstant(t *testing.T) {
	a := Compose("boho", "Kitchen", "plants everywhere", 90)
	b := Compose("elegant", "Bathroom", "", 10)
	if a.Negative != b.Negative {
		t.Fatalf("negative prompt varies across requests: %q vs %q", a.Negative, b.Negative)
	}
	for _, forbidden := range []string{"changing structure", "clutter", "blurry", "low quality", "cartoon"} {
		if !strings.Contains(a.Negative, forbidden) {
			t.Fatalf("negative prompt missing %q: %q", forbidden, a.Negative)
		}
	}
}
