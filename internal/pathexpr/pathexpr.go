package pathexpr

import (
	"slices"
	"strings"

	"github.com/rohmanhakim/result-finder/pkg/failure"
)

/*
PathExpression is an in-memory selector of the constrained dialect:

	/html/body/div[@id='main']/ul[contains(@class,'results')]/li[.//a]
	//li[starts-with(@id,'item') and .//h3/a]

An expression is an ordered list of child steps, optionally anchored with a
leading "//" (descendant-or-self from the root). Every step owns zero or more
boolean predicates, which serialize joined by " and " inside a single bracket
pair. Predicates are opaque text to this package; nested brackets and quoted
literals inside them are respected while parsing but never interpreted.

Parse(String(e)) always yields an expression Equal to e.
*/
type PathExpression struct {
	descendant bool
	steps      []Step
}

type Step struct {
	Name       string
	Predicates []string
}

const predicateSeparator = " and "

// Parse reads the textual form of an expression.
func Parse(text string) (*PathExpression, failure.ClassifiedError) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, &PathError{Message: "nothing to parse", Cause: ErrCauseEmptyExpression, Input: text}
	}
	if s[0] != '/' {
		return nil, &PathError{Message: "relative expressions are not supported", Cause: ErrCauseMissingRoot, Input: text}
	}

	p := &PathExpression{}
	i := 1
	if strings.HasPrefix(s, "//") {
		p.descendant = true
		i = 2
	}

	var name strings.Builder
	var cur *Step
	flush := func() failure.ClassifiedError {
		if cur == nil {
			if name.Len() == 0 {
				return &PathError{Message: "step has no name", Cause: ErrCauseEmptyStep, Input: text}
			}
			cur = &Step{Name: name.String()}
		}
		if strings.Contains(cur.Name, "::") {
			return &PathError{Message: "axis " + cur.Name, Cause: ErrCauseUnsupportedAxis, Input: text}
		}
		p.steps = append(p.steps, *cur)
		cur = nil
		name.Reset()
		return nil
	}

	for i < len(s) {
		c := s[i]
		switch c {
		case '/':
			if err := flush(); err != nil {
				return nil, err
			}
			i++
		case '[':
			if cur == nil {
				if name.Len() == 0 {
					return nil, &PathError{Message: "predicate without a step", Cause: ErrCauseEmptyStep, Input: text}
				}
				cur = &Step{Name: name.String()}
				name.Reset()
			}
			body, next, err := readBracket(s, i)
			if err != nil {
				err.Input = text
				return nil, err
			}
			for _, pred := range splitTopLevel(body) {
				if pred = strings.TrimSpace(pred); pred != "" {
					cur.Predicates = append(cur.Predicates, pred)
				}
			}
			i = next
		case ']':
			return nil, &PathError{Message: "closing bracket without opening", Cause: ErrCauseUnbalancedBrackets, Input: text}
		default:
			if cur != nil {
				return nil, &PathError{Message: "text after predicate", Cause: ErrCauseEmptyStep, Input: text}
			}
			name.WriteByte(c)
			i++
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustParse is Parse for expressions known to be valid; it panics otherwise.
func MustParse(text string) *PathExpression {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// readBracket returns the text between the bracket opening at s[start] and
// its matching close, plus the index right after the close.
func readBracket(s string, start int) (string, int, *PathError) {
	depth := 0
	var quote byte
	for j := start; j < len(s); j++ {
		c := s[j]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start+1 : j], j + 1, nil
			}
		}
	}
	if quote != 0 {
		return "", 0, &PathError{Message: "literal never closed", Cause: ErrCauseUnterminatedQuote}
	}
	return "", 0, &PathError{Message: "predicate never closed", Cause: ErrCauseUnbalancedBrackets}
}

// splitTopLevel splits a predicate block on " and " outside nested
// brackets, parentheses and quoted literals.
func splitTopLevel(body string) []string {
	var parts []string
	depth := 0
	var quote byte
	last := 0
	for j := 0; j < len(body); j++ {
		c := body[j]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ' ':
			if depth == 0 && strings.HasPrefix(body[j:], predicateSeparator) {
				parts = append(parts, body[last:j])
				j += len(predicateSeparator) - 1
				last = j + 1
			}
		}
	}
	return append(parts, body[last:])
}

// Len returns the number of steps.
func (p *PathExpression) Len() int {
	return len(p.steps)
}

// Descendant reports whether the expression starts with "//".
func (p *PathExpression) Descendant() bool {
	return p.descendant
}

// Step returns a copy of step i.
func (p *PathExpression) Step(i int) Step {
	s := p.steps[i]
	return Step{Name: s.Name, Predicates: slices.Clone(s.Predicates)}
}

func (p *PathExpression) Predicates(i int) []string {
	if i < 0 || i >= len(p.steps) {
		return nil
	}
	return slices.Clone(p.steps[i].Predicates)
}

func (p *PathExpression) HasPredicate(i int, pred string) bool {
	if i < 0 || i >= len(p.steps) {
		return false
	}
	return slices.Contains(p.steps[i].Predicates, pred)
}

// TestsAttribute reports whether a predicate of step i refers to the
// attribute name, as in @id='x' or starts-with(@id,'r').
func (p *PathExpression) TestsAttribute(i int, name string) bool {
	if i < 0 || i >= len(p.steps) || name == "" {
		return false
	}
	ref := "@" + name
	for _, pred := range p.steps[i].Predicates {
		rest := pred
		for {
			at := strings.Index(rest, ref)
			if at < 0 {
				break
			}
			rest = rest[at+len(ref):]
			if rest == "" || !isNameChar(rest[0]) {
				return true
			}
		}
	}
	return false
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' || c == '.' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// AddPredicate appends pred to step i. It returns false, leaving the
// expression untouched, when i is out of range or pred is already there.
func (p *PathExpression) AddPredicate(i int, pred string) bool {
	if i < 0 || i >= len(p.steps) || pred == "" {
		return false
	}
	if slices.Contains(p.steps[i].Predicates, pred) {
		return false
	}
	p.steps[i].Predicates = append(p.steps[i].Predicates, pred)
	return true
}

// RemovePredicate drops pred from step i and reports whether it was present.
func (p *PathExpression) RemovePredicate(i int, pred string) bool {
	if i < 0 || i >= len(p.steps) {
		return false
	}
	idx := slices.Index(p.steps[i].Predicates, pred)
	if idx < 0 {
		return false
	}
	p.steps[i].Predicates = slices.Delete(p.steps[i].Predicates, idx, idx+1)
	if len(p.steps[i].Predicates) == 0 {
		p.steps[i].Predicates = nil
	}
	return true
}

func (p *PathExpression) String() string {
	return p.Serialize(0)
}

// Serialize writes the expression from step `from` onwards. A non-zero
// start yields a descendant expression, e.g. Serialize(1) of /html/body/div
// is //body/div.
func (p *PathExpression) Serialize(from int) string {
	if from < 0 {
		from = 0
	}
	var sb strings.Builder
	if from > 0 || p.descendant {
		sb.WriteString("//")
	} else {
		sb.WriteByte('/')
	}
	writeSteps(&sb, p.steps[min(from, len(p.steps)):])
	return sb.String()
}

// LiftTrailingSteps rewrites the trailing `level` steps into a descendant
// predicate of the step before them:
//
//	/html/body/div/p/a, level 1 -> /html/body/div/p[.//a]
//	/html/body/div/p/a, level 2 -> /html/body/div[.//p/a]
//
// Existing predicates on the anchor step are kept and conjoined first.
// Levels outside [1, Len()-1] return the plain serialization.
func (p *PathExpression) LiftTrailingSteps(level int) string {
	if level <= 0 || level >= len(p.steps) {
		return p.String()
	}
	anchor := len(p.steps) - level - 1

	var sb strings.Builder
	if p.descendant {
		sb.WriteString("//")
	} else {
		sb.WriteByte('/')
	}
	writeSteps(&sb, p.steps[:anchor])
	if anchor > 0 {
		sb.WriteByte('/')
	}

	a := p.steps[anchor]
	sb.WriteString(a.Name)
	sb.WriteByte('[')
	for _, pred := range a.Predicates {
		sb.WriteString(pred)
		sb.WriteString(predicateSeparator)
	}
	sb.WriteString(".//")
	writeSteps(&sb, p.steps[anchor+1:])
	sb.WriteByte(']')
	return sb.String()
}

// Truncate drops the trailing `level` steps without keeping any constraint.
// It returns "" when nothing would remain.
func (p *PathExpression) Truncate(level int) string {
	if level <= 0 {
		return p.String()
	}
	if level >= len(p.steps) {
		return ""
	}
	t := &PathExpression{descendant: p.descendant, steps: p.steps[:len(p.steps)-level]}
	return t.String()
}

// Clone returns a deep copy.
func (p *PathExpression) Clone() *PathExpression {
	c := &PathExpression{descendant: p.descendant, steps: make([]Step, len(p.steps))}
	for i, s := range p.steps {
		c.steps[i] = Step{Name: s.Name, Predicates: slices.Clone(s.Predicates)}
	}
	return c
}

func (p *PathExpression) Equal(other *PathExpression) bool {
	if other == nil || p.descendant != other.descendant || len(p.steps) != len(other.steps) {
		return false
	}
	for i := range p.steps {
		if p.steps[i].Name != other.steps[i].Name {
			return false
		}
		if !slices.Equal(p.steps[i].Predicates, other.steps[i].Predicates) {
			return false
		}
	}
	return true
}

func writeSteps(sb *strings.Builder, steps []Step) {
	for i, s := range steps {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(s.Name)
		if len(s.Predicates) > 0 {
			sb.WriteByte('[')
			sb.WriteString(strings.Join(s.Predicates, predicateSeparator))
			sb.WriteByte(']')
		}
	}
}
