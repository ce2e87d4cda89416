package plate

import (
	"errors"
	"image"
	"sync"
	"testing"
)

func TestRegion_Validate(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)

	tests := []struct {
		name    string
		region  Region
		wantErr bool
	}{
		{"inside", Region{X: 10, Y: 10, Width: 20, Height: 10}, false},
		{"full frame", Region{X: 0, Y: 0, Width: 100, Height: 50}, false},
		{"touches right edge", Region{X: 80, Y: 0, Width: 20, Height: 5}, false},
		{"negative x", Region{X: -1, Y: 0, Width: 10, Height: 10}, true},
		{"negative y", Region{X: 0, Y: -1, Width: 10, Height: 10}, true},
		{"past right edge", Region{X: 95, Y: 0, Width: 10, Height: 10}, true},
		{"past bottom edge", Region{X: 0, Y: 45, Width: 10, Height: 10}, true},
		{"zero width", Region{X: 0, Y: 0, Width: 0, Height: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate(bounds)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvalidRegion) {
					t.Errorf("error should wrap ErrInvalidRegion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegion_RectRoundTrip(t *testing.T) {
	r := Region{X: 3, Y: 4, Width: 30, Height: 12}
	if got := RegionFromRect(r.Rect()); got != r {
		t.Errorf("got %v, want %v", got, r)
	}
	if r.Area() != 360 {
		t.Errorf("Area: got %d, want 360", r.Area())
	}
}

func TestSession_Add(t *testing.T) {
	s := NewSession()

	if !s.Add("ABC123") {
		t.Error("first add should report new")
	}
	if s.Add("ABC123") {
		t.Error("duplicate add should not report new")
	}
	if s.Add("  ABC123 \n") {
		t.Error("add is compared after trimming")
	}
	if s.Add("") || s.Add("   ") {
		t.Error("empty text must never be stored")
	}
	if !s.Add("xyz 9") {
		t.Error("second distinct text should be new")
	}

	got := s.Plates()
	want := []string{"ABC123", "xyz 9"}
	if len(got) != len(want) {
		t.Fatalf("Plates: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Plates[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSession_NoNormalization(t *testing.T) {
	s := NewSession()
	s.Add("abc123")
	if !s.Add("ABC123") {
		t.Error("case variants are distinct texts")
	}
	if s.Len() != 2 {
		t.Errorf("Len: got %d, want 2", s.Len())
	}
}

func TestSession_PlatesIsCopy(t *testing.T) {
	s := NewSession()
	if got := s.Plates(); got == nil || len(got) != 0 {
		t.Errorf("empty session should return empty non-nil slice, got %#v", got)
	}
	s.Add("A1")
	p := s.Plates()
	p[0] = "mutated"
	if s.Plates()[0] != "A1" {
		t.Error("Plates must return a copy")
	}
}

func TestSession_Concurrent(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Add("SAME")
				_ = s.Plates()
			}
		}()
	}
	wg.Wait()
	if s.Len() != 1 {
		t.Errorf("Len: got %d, want 1", s.Len())
	}
}
