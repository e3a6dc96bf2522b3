// Package mask redacts recipient numbers and one-time codes before they
// reach log output.
package mask

import "regexp"

var codeRun = regexp.MustCompile(`\b\d{4,8}\b`)

// Phone hides the middle of a phone number, keeping the first three and
// last three characters and preserving the input length. Anything shorter
// than four characters becomes a fixed four-asterisk placeholder.
func Phone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}

	masked := []byte(phone)
	for i := 3; i < len(masked)-3; i++ {
		masked[i] = '*'
	}
	return string(masked)
}

// Code replaces every standalone run of 4 to 8 digits with four
// asterisks, so verification codes never appear in logs verbatim.
func Code(text string) string {
	return codeRun.ReplaceAllString(text, "****")
}
