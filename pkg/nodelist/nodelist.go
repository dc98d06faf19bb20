// Package nodelist parses and expands the compressed node-name grammar used
// by the scheduler's partition and node-state listings:
//
//	nodelist  := element ("," element)*
//	element   := fragment+
//	fragment  := literal | range
//	literal   := one-or-more chars not in "[,"
//	range     := "[" range-elt ("," range-elt)* "]"
//	range-elt := number | number "-" number | token
//	number    := decimal digits
//
// Parsing splits the top-level comma-separated elements; Expand renders the
// full cross-product of each element's fragments into concrete node names.
// Within one bracket group the comma-separated alternatives are a union, not
// a further cross-product: "c1-[5-6,8-9]" expands to four names, not to the
// concatenation of every low with every high. Separate fragments (distinct
// bracket groups, or a bracket next to a literal) still cross-multiply.
package nodelist

import (
	"fmt"
	"strconv"
	"strings"
)

// Fragment is one unit inside an element: a bare literal renders as its own
// single-element alternative set; a bracket group renders as the ordered
// union of every range-elt it contains.
type Fragment struct {
	Alternatives []string
}

// Element is one comma-separated unit of a nodelist, e.g. "c1-[5-6,8-9]".
type Element struct {
	Fragments []Fragment
}

// Parse splits s into its top-level elements and parses each one's internal
// grammar. It does not expand ranges; call Expand for that.
func Parse(s string) ([]Element, error) {
	var elements []Element
	for _, part := range splitTopLevel(s) {
		el, err := parseElement(part)
		if err != nil {
			return nil, fmt.Errorf("nodelist: %w", err)
		}
		elements = append(elements, el)
	}
	return elements, nil
}

// splitTopLevel splits on "," that is not nested inside a "[...]" group.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

func parseElement(s string) (Element, error) {
	var el Element
	i := 0
	for i < len(s) {
		if s[i] == '[' {
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return Element{}, fmt.Errorf("unterminated range in %q", s)
			}
			end += i
			alts, err := parseRangeGroup(s[i+1 : end])
			if err != nil {
				return Element{}, err
			}
			el.Fragments = append(el.Fragments, Fragment{Alternatives: alts})
			i = end + 1
		} else {
			start := i
			for i < len(s) && s[i] != '[' {
				i++
			}
			el.Fragments = append(el.Fragments, Fragment{Alternatives: []string{s[start:i]}})
		}
	}
	return el, nil
}

// parseRangeGroup renders the comma-separated body of one bracket group into
// its ordered union of member strings. Each part is a numeric range
// ("5-6"), a single number ("07", zero-padding preserved), or a bare token
// ("a"), the last kept verbatim as its own one-element alternative.
func parseRangeGroup(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			return nil, fmt.Errorf("empty range element")
		}
		if dash := strings.IndexByte(part, '-'); dash > 0 {
			loStr, hiStr := part[:dash], part[dash+1:]
			lo, loErr := strconv.Atoi(loStr)
			hi, hiErr := strconv.Atoi(hiStr)
			if loErr == nil && hiErr == nil {
				if hi < lo {
					return nil, fmt.Errorf("descending range %q", part)
				}
				width := 0
				if len(loStr) > 1 && loStr[0] == '0' {
					width = len(loStr)
				} else if len(hiStr) > 1 && hiStr[0] == '0' {
					width = len(hiStr)
				}
				for v := lo; v <= hi; v++ {
					out = append(out, formatNum(v, width))
				}
				continue
			}
		}
		if n, err := strconv.Atoi(part); err == nil {
			width := 0
			if len(part) > 1 && part[0] == '0' {
				width = len(part)
			}
			out = append(out, formatNum(n, width))
			continue
		}
		out = append(out, part)
	}
	return out, nil
}

func formatNum(v, width int) string {
	if width == 0 {
		return strconv.Itoa(v)
	}
	return fmt.Sprintf("%0*d", width, v)
}

// Expand renders an element into its full cross-product of names: each
// fragment contributes its own alternative set, and distinct fragments
// cross-multiply in sequence.
func Expand(el Element) []string {
	names := []string{""}
	for _, f := range el.Fragments {
		var next []string
		for _, n := range names {
			for _, alt := range f.Alternatives {
				next = append(next, n+alt)
			}
		}
		names = next
	}
	return names
}

// ExpandAll parses and expands every element of s into one flat list.
func ExpandAll(s string) ([]string, error) {
	elements, err := Parse(s)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, el := range elements {
		out = append(out, Expand(el)...)
	}
	return out, nil
}
