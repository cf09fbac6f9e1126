package pkg

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugReg = regexp.MustCompile("[^a-z0-9]+")

func GenerateSlug(s string) string {
	slug := strings.ToLower(s)
	slug = slugReg.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return "call"
	}
	return slug
}

// GenerateRoomName builds a provider-safe, unguessable room name such as
// "client-round-1-3f9a2c71b0de".
func GenerateRoomName(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	slug := GenerateSlug(prefix)
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "-")
	}
	return slug + "-" + suffix
}
