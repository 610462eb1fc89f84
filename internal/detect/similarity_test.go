package detect

import (
	"reflect"
	"testing"
)

func TestTextSimilarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "剑桥英语", "剑桥英语", 1.0},
		{"empty left", "", "abc", 0.0},
		{"empty right", "abc", "", 0.0},
		{"order insensitive", "abc", "cba", 1.0},
		{"case insensitive", "ABC", "abc", 1.0},
		{"punctuation stripped", "a-b-c!", "abc", 1.0},
		{"disjoint", "甲乙丙", "丁戊己", 0.0},
		{"partial", "ab", "ax", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TextSimilarity(tt.a, tt.b); !approxEqual(got, tt.want) {
				t.Fatalf("TextSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTextSimilarityNormalizesByLongerText(t *testing.T) {
	t.Parallel()
	// All two runes of a appear in b, but b is four runes long.
	if got := TextSimilarity("ab", "abcd"); !approxEqual(got, 0.5) {
		t.Fatalf("got %v, want 0.5", got)
	}
}

func TestKeywordCoverage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     float64
	}{
		{"no keywords", "anything", nil, 0.0},
		{"all hit", "剑桥少儿英语", []string{"剑桥", "英语"}, 1.0},
		{"half hit", "剑桥教材", []string{"剑桥", "英语"}, 0.5},
		{"case sensitive", "ABC", []string{"abc"}, 0.0},
		{"empty keyword ignored", "abc", []string{""}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KeywordCoverage(tt.text, tt.keywords); !approxEqual(got, tt.want) {
				t.Fatalf("KeywordCoverage(%q, %v) = %v, want %v", tt.text, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"stop words dropped", "The Book of Go", []string{"Book", "Go"}},
		{"cjk stop words dropped", "剑桥少儿英语 的 教材", []string{"剑桥少儿英语", "教材"}},
		{"single runes dropped", "a bb 甲 乙丙", []string{"bb", "乙丙"}},
		{"punctuation splits", "剑桥,英语/教材", []string{"剑桥", "英语", "教材"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractKeywords(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
