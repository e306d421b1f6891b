package dlsite

import (
	"regexp"
	"strings"
)

var workNoPattern = regexp.MustCompile(`(?i)RJ\d{6}(?:\d{2})?`)

// WorkNo finds a catalog ID such as "RJ123456" or "RJ01234567" anywhere in
// name and returns it upper-cased.
func WorkNo(name string) (string, bool) {
	id := workNoPattern.FindString(name)
	if id == "" {
		return "", false
	}
	return strings.ToUpper(id), true
}
