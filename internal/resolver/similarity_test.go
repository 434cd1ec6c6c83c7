package resolver

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical names", "Apple", "Apple", 1.0},
		{"case and punctuation ignored", "apple!", "APPLE", 1.0},
		{"legal suffix ignored", "ASML Holding N.V.", "ASML", 1.0},
		{"share class ignored", "Diageo PLC ORD", "Diageo", 1.0},
		{"currency tail ignored", "Bitcoin EUR", "Bitcoin", 1.0},
		{"disjoint names", "Gold Physical", "Xauen Mining", 0},
		{"partial overlap", "Vanguard S&P 500", "Vanguard FTSE 250", 0.25},
		{"empty input", "", "Apple", 0},
		{"both empty", "", "", 0},
		{"stopwords only", "Inc Corp Ltd", "Apple", 0},
		{"single characters dropped", "A B C", "Apple", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Gold Physical", "WisdomTree Physical Silver"},
		{"Apple Inc", "Apple Computer"},
		{"Vestas Wind Systems", "Vestas"},
	}
	for _, p := range pairs {
		if ab, ba := Similarity(p[0], p[1]), Similarity(p[1], p[0]); ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarityThresholdBoundary(t *testing.T) {
	// two shared tokens out of five distinct: 2/5 = 0.40 exactly
	got := Similarity("Vestas Wind One", "Vestas Wind Two Three")
	if math.Abs(got-0.4) > 1e-9 {
		t.Fatalf("expected exactly 0.4, got %v", got)
	}
	if got < DefaultPolicy().SimilarityThreshold {
		t.Fatal("boundary score must pass the inclusive threshold")
	}
}

func TestTokenizeFiltersDescriptiveWordsAreKept(t *testing.T) {
	tokens := tokenize("WisdomTree Physical Silver ETC")
	if !tokens["PHYSICAL"] {
		t.Error("descriptive word PHYSICAL must survive tokenization")
	}
	if tokens["ETC"] {
		t.Error("asset-type word ETC must be filtered")
	}
}
