package business

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug turns a business name into a URL-safe slug.
// Example: "Pousada São José" -> "pousada-sao-jose"
func MakeSlug(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	base := strings.ToLower(strings.TrimSpace(folded))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "negocio"
	}
	return base
}

// SlugFor appends the first six hex digits of id so equal names stay unique.
func SlugFor(name string, id uuid.UUID) string {
	return MakeSlug(name) + "-" + strings.ReplaceAll(id.String(), "-", "")[:6]
}
