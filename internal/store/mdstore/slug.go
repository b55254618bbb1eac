package mdstore

import "strings"

const maxSlugLength = 40

// slugify keeps the ASCII letters and digits of name, joining runs of
// anything else with a single dash. Long slugs are cut at a word boundary.
func slugify(name string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(name) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		cut := slug[:maxSlugLength]
		if slug[maxSlugLength] != '-' {
			if i := strings.LastIndexByte(cut, '-'); i > 0 {
				cut = cut[:i]
			}
		}
		slug = strings.TrimRight(cut, "-")
	}
	if slug == "" {
		return "task"
	}
	return slug
}

// filename is "<id>-<slug>.md". Ids never contain a dash.
func filename(id, name string) string {
	return id + "-" + slugify(name) + ".md"
}

// idOf returns the id prefix of a task file name.
func idOf(file string) (string, bool) {
	if !strings.HasSuffix(file, ".md") {
		return "", false
	}
	id, _, ok := strings.Cut(file, "-")
	return id, ok && id != ""
}
