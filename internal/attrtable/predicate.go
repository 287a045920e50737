package attrtable

import (
	"regexp"
	"strings"

	"github.com/rohmanhakim/result-finder/internal/dom"
)

var numberedID = regexp.MustCompile(`^([^\d]+)(\d+)$`)

// Predicates derives the generalized attribute predicates of an element:
//
//	id="result12"      -> starts-with(@id,'result')
//	class="a  b"       -> contains(@class,'a'), contains(@class,'b')
//	role="listitem"    -> @role='listitem'
//
// Namespaced attributes, href, and values holding a quote or apostrophe
// produce nothing. Order follows the attribute order of the element.
func Predicates(doc *dom.Document, id dom.NodeID) []string {
	var out []string
	for _, attr := range doc.Attributes(id) {
		name := attr.Key
		if attr.Namespace != "" || strings.Contains(name, ":") || strings.EqualFold(name, "href") {
			continue
		}
		value := attr.Val
		if strings.ContainsAny(value, `"'`) {
			continue
		}

		switch {
		case name == "id" && numberedID.MatchString(value):
			m := numberedID.FindStringSubmatch(value)
			out = append(out, "starts-with(@id,'"+m[1]+"')")
		case name == "class":
			for _, token := range strings.Fields(value) {
				out = append(out, "contains(@class,'"+token+"')")
			}
		default:
			out = append(out, "@"+name+"='"+value+"'")
		}
	}
	return out
}
