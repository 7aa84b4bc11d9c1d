package expr

import (
	"regexp"
	"strings"
)

var (
	digitVar = regexp.MustCompile(`(\d)([xy])`)
	parenVar = regexp.MustCompile(`\)([xy])`)
	varParen = regexp.MustCompile(`([xy])\(`)
)

// Normalize rewrites conventional notation into the parser's input form:
// ^ becomes **, π becomes pi and implicit products such as 2x, )x and x(
// gain an explicit *.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "^", "**")
	s = strings.ReplaceAll(s, "π", "pi")
	s = digitVar.ReplaceAllString(s, "$1*$2")
	s = parenVar.ReplaceAllString(s, ")*$1")
	s = varParen.ReplaceAllString(s, "$1*(")
	return s
}
