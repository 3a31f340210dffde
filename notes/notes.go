// Package notes assembles the release description from the news fragments
// checked in under the configured directory. A fragment is a markdown
// file named <id>.<type>.md.
package notes

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plume-bot/plume-bot/config"
)

var typeTitles = map[string]string{
	"feature": "Features",
	"bugfix":  "Bugfixes",
	"doc":     "Documentation",
	"removal": "Removals",
	"misc":    "Misc",
}

// Compose renders the release description, grouping fragments by type in
// the configured order. A missing fragment directory yields an empty
// description, not an error: most patch releases have no news.
func Compose(cfg config.Notes) (string, error) {

	entries, err := ioutil.ReadDir(cfg.Directory)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	byType := map[string][]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fragmentType, ok := fragmentType(entry.Name())
		if !ok {
			continue
		}
		raw, err := ioutil.ReadFile(filepath.Join(cfg.Directory, entry.Name()))
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		byType[fragmentType] = append(byType[fragmentType], Clean(text))
	}

	var b strings.Builder
	for _, fragmentType := range cfg.Types {
		fragments := byType[fragmentType]
		if len(fragments) == 0 {
			continue
		}
		sort.Strings(fragments)

		title := typeTitles[fragmentType]
		if title == "" {
			title = fragmentType
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		for _, fragment := range fragments {
			fmt.Fprintf(&b, "- %s\n", fragment)
		}
	}
	return b.String(), nil
}

func fragmentType(name string) (string, bool) {
	if !strings.HasSuffix(name, ".md") {
		return "", false
	}
	parts := strings.Split(strings.TrimSuffix(name, ".md"), ".")
	if len(parts) < 2 {
		return "", false
	}
	return parts[len(parts)-1], true
}
