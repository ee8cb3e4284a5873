// Package slugify derives URL-safe identifiers from human-readable names.
package slugify

import (
	"strings"
	"unicode"

	"github.com/storynest/core/internal/pkg/token"
	"gorm.io/gorm"
)

// Make lowercases the name and collapses every non-alphanumeric run into a
// single hyphen. "Hello, World!" becomes "hello-world".
func Make(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Unique derives a slug from name and resolves collisions against the given
// table. An empty derivation falls back to a random token; a taken slug gets a
// random suffix. excludeID ignores one row, for renames.
func Unique(db *gorm.DB, table, name, excludeID string) (string, error) {
	slug := Make(name)
	if slug == "" {
		random, err := token.Generate(6)
		if err != nil {
			return "", err
		}
		slug = random
	}

	tx := db.Table(table).Where("slug = ?", slug)
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return slug, nil
	}

	suffix, err := token.Generate(4)
	if err != nil {
		return "", err
	}
	return slug + "-" + suffix, nil
}
