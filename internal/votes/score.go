package votes

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

const (
	// unbaseScale discounts token-based scores against the plain ratio.
	unbaseScale = 0.95
	// partialLengthRatio is the length ratio at which substring alignment
	// starts to count.
	partialLengthRatio = 1.5
)

// indel counts a substitution as a deletion plus an insertion.
var indel = levenshtein.NewParams().SubCost(2)

// Score rates two names from 0 to 100 as a weighted ratio: whole-string
// similarity, token-sorted and token-set similarity, and, when one name is
// much shorter, its best alignment inside the other. Surname-only and
// "Last, First" roll-call names score high against "First Last".
func Score(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return 0
	}

	la, lb := len([]rune(a)), len([]rune(b))
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))
	best := ratio(a, b)

	if lenRatio < partialLengthRatio {
		tokens := math.Max(ratio(sortTokens(a), sortTokens(b)), tokenSetRatio(a, b))
		return math.Round(math.Max(best, tokens*unbaseScale))
	}

	partialScale := 0.9
	if lenRatio > 8 {
		partialScale = 0.6
	}
	best = math.Max(best, partialRatio(a, b)*partialScale)
	tokens := math.Max(partialRatio(sortTokens(a), sortTokens(b)), partialTokenSetRatio(a, b))
	return math.Round(math.Max(best, tokens*unbaseScale*partialScale))
}

// normalize lowercases s and turns every run of non-alphanumerics into one
// space.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	d := levenshtein.Distance(a, b, indel)
	return 100 * (1 - float64(d)/float64(total))
}

// partialRatio is the best ratio of the shorter string against every
// same-length window of the longer one, including windows clipped at either
// end.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	n := len(short)
	s := string(short)
	var best float64
	for i := 1 - n; i < len(long); i++ {
		lo, hi := max(i, 0), min(i+n, len(long))
		best = math.Max(best, ratio(s, string(long[lo:hi])))
		if best == 100 {
			break
		}
	}
	return best
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// splitTokens returns the sorted shared tokens and the sorted tokens unique
// to each side.
func splitTokens(a, b string) (shared, onlyA, onlyB string) {
	inA := map[string]bool{}
	for _, t := range strings.Fields(a) {
		inA[t] = true
	}
	inB := map[string]bool{}
	for _, t := range strings.Fields(b) {
		inB[t] = true
	}

	var sect, da, db []string
	for t := range inA {
		if inB[t] {
			sect = append(sect, t)
		} else {
			da = append(da, t)
		}
	}
	for t := range inB {
		if !inA[t] {
			db = append(db, t)
		}
	}
	sort.Strings(sect)
	sort.Strings(da)
	sort.Strings(db)
	return strings.Join(sect, " "), strings.Join(da, " "), strings.Join(db, " ")
}

func tokenSetRatio(a, b string) float64 {
	sect, da, db := splitTokens(a, b)
	t1 := strings.TrimSpace(sect + " " + da)
	t2 := strings.TrimSpace(sect + " " + db)

	best := ratio(t1, t2)
	if sect != "" {
		best = math.Max(best, math.Max(ratio(sect, t1), ratio(sect, t2)))
	}
	return best
}

// partialTokenSetRatio is 100 as soon as the names share a token.
func partialTokenSetRatio(a, b string) float64 {
	sect, da, db := splitTokens(a, b)
	if sect != "" {
		return 100
	}
	return partialRatio(da, db)
}
