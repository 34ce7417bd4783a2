package spawn

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the parsed YAML header of an agent definition file. Only
// flat scalar fields are kept; nested structures are ignored.
type Frontmatter map[string]string

// splitFrontmatter separates the YAML block between leading --- markers from
// the body. Files without a frontmatter block return an empty map and the
// content unchanged.
func splitFrontmatter(content string) (Frontmatter, string) {
	if !strings.HasPrefix(content, "---") {
		return Frontmatter{}, content
	}

	rest, ok := strings.CutPrefix(content, "---")
	if !ok {
		return Frontmatter{}, content
	}
	rest = strings.TrimPrefix(rest, "\r")
	rest, ok = strings.CutPrefix(rest, "\n")
	if !ok {
		return Frontmatter{}, content
	}

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return Frontmatter{}, content
	}

	block := rest[:end]
	body := rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return Frontmatter{}, content
	}

	fm := make(Frontmatter, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fm[key] = v
		case bool, int, int64, float64:
			fm[key] = fmt.Sprint(v)
		}
	}
	return fm, body
}
