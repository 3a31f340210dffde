package notes

import (
	"regexp"
	"strings"
)

var (
	issueRef = regexp.MustCompile(`#(\d)`)
	mention  = regexp.MustCompile(`@(\w)`)
	mdLink   = regexp.MustCompile(`\[[^\]]*\]\(([^)]+)\)`)
	bareLink = regexp.MustCompile(`https?://[^\s)]+`)
)

// Clean neutralizes issue references, mentions and links in fragment
// text. The index renders descriptions as markdown and must not ping
// issues or users of the source forge.
func Clean(text string) string {
	text = mdLink.ReplaceAllStringFunc(text, func(link string) string {
		return defang(mdLink.FindStringSubmatch(link)[1])
	})
	text = bareLink.ReplaceAllStringFunc(text, defang)
	text = issueRef.ReplaceAllString(text, "#<!-- -->$1")
	text = mention.ReplaceAllString(text, "@<!-- -->$1")
	return text
}

// defang breaks link auto-detection by inserting inert spans before every
// path separator and dot.
func defang(url string) string {
	url = strings.ReplaceAll(url, "/", "<span/>/")
	url = strings.ReplaceAll(url, ".", "<span/>.")
	return url
}
