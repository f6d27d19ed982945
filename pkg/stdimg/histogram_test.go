package stdimg

import (
	"testing"
)

func TestComputeHistogramCounts(t *testing.T) {
	src := makeGray(4, 2, func(x, y int) uint8 { return uint8(x) })
	hist := ComputeHistogram(src)
	for v := 0; v < 4; v++ {
		if hist[v] != 2 {
			t.Fatalf("hist[%d] = %d, want 2", v, hist[v])
		}
	}
	total := 0
	for _, c := range hist {
		total += c
	}
	if total != 8 {
		t.Fatalf("histogram total %d, want 8", total)
	}
}

func TestEqualizeUniformImageUnchanged(t *testing.T) {
	src := makeSolidGray(16, 16, 128)
	out := Equalize(src)
	if !EqualGray(src, out) {
		t.Fatalf("uniform image changed under equalization")
	}
	if EqualizeLUT([256]int{}) != IdentityLUT() {
		t.Fatalf("empty histogram should give identity")
	}
}

func TestEqualizeLUTUsesCDFMin(t *testing.T) {
	var hist [256]int
	hist[10] = 2
	hist[20] = 1
	hist[30] = 1
	lut := EqualizeLUT(hist)
	// total=4, cdfMin=2: levels 10,20,30 -> 0, round(1*255/2)=128, 255
	if lut[5] != 0 || lut[10] != 0 || lut[20] != 128 || lut[30] != 255 {
		t.Fatalf("unexpected lut: [5]=%d [10]=%d [20]=%d [30]=%d", lut[5], lut[10], lut[20], lut[30])
	}
	if lut[25] != 128 || lut[255] != 255 {
		t.Fatalf("empty levels should carry forward: [25]=%d [255]=%d", lut[25], lut[255])
	}
	if !lut.IsMonotonic() {
		t.Fatalf("equalization LUT must be non-decreasing")
	}
}

func TestEqualizeSpreadsRange(t *testing.T) {
	src := makeGray(16, 16, func(x, y int) uint8 { return uint8(100 + (x+y)%20) })
	out := Equalize(src)
	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo != 0 || hi != 255 {
		t.Fatalf("expected equalized range [0,255], got [%d,%d]", lo, hi)
	}
}

func TestEqualizeIdempotent(t *testing.T) {
	src := makeGray(16, 16, func(x, y int) uint8 {
		i := y*16 + x
		return uint8(i * i / 255)
	})
	once := Equalize(src)
	twice := Equalize(once)
	for i := range once.Pix {
		d := int(once.Pix[i]) - int(twice.Pix[i])
		if d < -1 || d > 1 {
			t.Fatalf("pixel %d moved from %d to %d on second equalization", i, once.Pix[i], twice.Pix[i])
		}
	}
}

func TestGammaOneScenario(t *testing.T) {
	// 8x8 image with values 0,32,...,224 along each row
	src := makeGray(8, 8, func(x, y int) uint8 { return uint8(32 * x) })
	out := Gamma(src, 1.0)
	if !EqualGray(src, out) {
		t.Fatalf("gamma 1.0 must be bit-identical")
	}
}

func TestGammaThenEqualizeCompositionLaw(t *testing.T) {
	src := makeGray(32, 24, func(x, y int) uint8 { return uint8((x*7 + y*13) % 256) })
	got := GammaThenEqualize(src, 2.0)
	want := Equalize(ApplyLUT(src, GammaLUT(2.0)))
	if !EqualGray(got, want) {
		t.Fatalf("GammaThenEqualize differs from Equalize(ApplyLUT(GammaLUT))")
	}
}

func TestContrastStretchImage(t *testing.T) {
	src := makeGray(3, 1, func(x, y int) uint8 { return []uint8{10, 125, 240}[x] })
	out, err := ContrastStretch(src, 50, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.GrayAt(0, 0).Y != 0 || out.GrayAt(1, 0).Y != 128 || out.GrayAt(2, 0).Y != 255 {
		t.Fatalf("unexpected stretch output %v", out.Pix)
	}
	if _, err := ContrastStretch(nil, 50, 200); err == nil {
		t.Fatalf("expected error for nil image")
	}
}
