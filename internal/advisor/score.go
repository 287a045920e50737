package advisor

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// descriptiveWords mark selectors that name what they select.
var descriptiveWords = []string{"result", "item", "product", "list", "offer", "article", "lijst"}

const (
	dimLength = iota
	dimAttribute
	dimKeyword
	dimSteps
	dimNestedSteps
	dimCount
)

// weights of the length and step dimensions; the rest count once.
var weights = [dimCount]float64{1.3, 1, 1, 1.2, 1}

// Features is the raw readability vector of a selector.
type Features [dimCount]float64

// Measure computes the readability features of xpath: its length, whether it
// has an attribute predicate, whether it contains a descriptive word, the
// number of steps outside predicates and the number of steps inside them.
func Measure(xpath string) Features {
	var f Features
	f[dimLength] = float64(len(xpath))
	if strings.Contains(xpath, "@") {
		f[dimAttribute] = 1
	}
	lower := strings.ToLower(xpath)
	for _, w := range descriptiveWords {
		if strings.Contains(lower, w) {
			f[dimKeyword] = 1
			break
		}
	}

	depth := 0
	for _, r := range xpath {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '/':
			if depth == 0 {
				f[dimSteps]++
			} else {
				f[dimNestedSteps]++
			}
		}
	}
	return f
}

// scoreAll normalizes each dimension by its maximum over all candidates,
// inverts the two dimensions where presence is good, applies the weights
// and returns the Euclidean norm per candidate. Lower is better.
func scoreAll(features []Features) []float64 {
	var maxima Features
	for _, f := range features {
		for d := range f {
			maxima[d] = max(maxima[d], f[d])
		}
	}

	scores := make([]float64, len(features))
	for i, f := range features {
		v := make([]float64, dimCount)
		for d := range f {
			if maxima[d] > 0 {
				v[d] = f[d] / maxima[d]
			}
		}
		v[dimAttribute] = 1 - v[dimAttribute]
		v[dimKeyword] = 1 - v[dimKeyword]
		floats.Mul(v, weights[:])
		scores[i] = floats.Norm(v, 2)
	}
	return scores
}
