package tile

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"F472B6", Color{244, 114, 182}, false},
		{"#F472B6", Color{244, 114, 182}, false},
		{"#f472b6", Color{244, 114, 182}, false},
		{"2,19,91", Color{2, 19, 91}, false},
		{" 255 , 0 , 0 ", Color{255, 0, 0}, false},
		{"white", Color{255, 255, 255}, false},
		{"black", Color{0, 0, 0}, false},
		{"", Color{}, true},
		{"GGGGGG", Color{}, true},
		{"1,2", Color{}, true},
		{"1,2,300", Color{}, true},
		{"#FFF", Color{}, true},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseColor(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseColor(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorDistance(t *testing.T) {
	tests := []struct {
		a, b Color
		want float64
	}{
		{Color{0, 0, 0}, Color{0, 0, 0}, 0},
		{Color{255, 0, 0}, Color{0, 0, 0}, 255},
		{Color{3, 4, 0}, Color{0, 0, 0}, 5},
		{Color{255, 255, 255}, Color{0, 0, 0}, math.Sqrt(3 * 255 * 255)},
	}

	for _, tt := range tests {
		if got := tt.a.Distance(tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Distance(%v, %v) = %g, want %g", tt.a, tt.b, got, tt.want)
		}
		// Distance is symmetric.
		if got := tt.b.Distance(tt.a); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Distance(%v, %v) = %g, want %g", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestMeanColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	// Left half red, right half blue.
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
		for x := 2; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 100, A: 255})
		}
	}

	if got := MeanColor(img, image.Rect(0, 0, 2, 2)); got != (Color{R: 200}) {
		t.Errorf("left half mean = %v, want #C80000", got)
	}
	if got := MeanColor(img, image.Rect(2, 0, 4, 2)); got != (Color{B: 100}) {
		t.Errorf("right half mean = %v, want #000064", got)
	}
	if got := MeanColor(img, img.Bounds()); got != (Color{R: 100, B: 50}) {
		t.Errorf("full mean = %v, want #640032", got)
	}
}

func TestMeanColorClampsToBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	// The region extends past the image; only existing pixels count.
	if got := MeanColor(img, image.Rect(2, 2, 10, 10)); got != (Color{10, 20, 30}) {
		t.Errorf("partial region mean = %v, want #0A141E", got)
	}
	if got := MeanColor(img, image.Rect(5, 5, 10, 10)); got != (Color{}) {
		t.Errorf("empty region mean = %v, want zero color", got)
	}
}
