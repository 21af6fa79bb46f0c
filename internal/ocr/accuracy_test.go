package ocr

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		ref, hyp string
		cer, wer float64
		distance int
		refChars int
		refWords int
	}{
		{"exact", "hello world", "hello world", 0, 0, 0, 11, 2},
		{"whitespace ignored", "hello world", "  hello\n\nworld ", 0, 0, 0, 11, 2},
		{"one substitution", "hello world", "hallo world", 1.0 / 11, 0.5, 1, 11, 2},
		{"missing word", "the quick fox", "the fox", 6.0 / 13, 1.0 / 3, 6, 13, 3},
		{"both empty", "", "   ", 0, 0, 0, 0, 0},
		{"empty reference", "", "noise", 1, 1, 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Score(tt.ref, tt.hyp)
			if math.Abs(a.CharErrorRate-tt.cer) > 1e-9 {
				t.Errorf("CER = %v, want %v", a.CharErrorRate, tt.cer)
			}
			if math.Abs(a.WordErrorRate-tt.wer) > 1e-9 {
				t.Errorf("WER = %v, want %v", a.WordErrorRate, tt.wer)
			}
			if a.CharDistance != tt.distance || a.ReferenceChars != tt.refChars || a.ReferenceWords != tt.refWords {
				t.Errorf("got %+v", a)
			}
		})
	}
}
