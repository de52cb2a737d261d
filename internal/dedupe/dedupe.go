// Package dedupe suppresses articles whose titles are near-duplicates.
package dedupe

import (
	"math"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// DefaultThreshold is the similarity above which a later title is dropped.
const DefaultThreshold = 95

// Similarity scores two strings from 0 (nothing shared) to 100 (identical)
// as 2*LCS/(len a + len b) over runes, the indel ratio. An inserted or
// deleted rune costs one unit here, where a substitution costs two.
func Similarity(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(2*lcsLength(ra, rb)) / float64(total)))
}

// lcsLength returns the length of the longest common subsequence of a and b
// using two rows of the dynamic programming table.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Titles removes every article whose title scores above threshold against an
// earlier surviving article. The first occurrence wins, and a removed article
// is never used as a comparison source. Order of the survivors is preserved.
func Titles(articles []article.Article, threshold int) []article.Article {
	drop := make([]bool, len(articles))
	for i := range articles {
		if drop[i] {
			continue
		}
		for j := i + 1; j < len(articles); j++ {
			if drop[j] {
				continue
			}
			if Similarity(articles[i].Title, articles[j].Title) > threshold {
				drop[j] = true
			}
		}
	}

	out := make([]article.Article, 0, len(articles))
	for i, a := range articles {
		if !drop[i] {
			out = append(out, a)
		}
	}
	return out
}
