// Package observation implements the coral identity model: internal
// identifier generation and the ingest workflow that links uploaded
// images to new or existing coral identities.
package observation

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// prefix length cap, matching identifiers like BH_20240115_a1b2c3d4
const maxPrefixLen = 3

// GenerateInternalID produces a human-decodable identifier for a newly
// observed coral: uppercase initials of the dive site name (at most
// three), the current date, and a random 8 character hex suffix, joined
// by underscores. An empty site name yields an empty prefix; the HTTP
// boundary rejects empty names before ingest runs. Collisions are
// practically impossible given the suffix, and the datastore uniqueness
// constraint on internal_id is the backstop.
func GenerateInternalID(siteName string) string {
	date := time.Now().Format("20060102")

	u := uuid.New()
	suffix := hex.EncodeToString(u[:4])

	var initials []rune
	for _, word := range strings.Fields(siteName) {
		if len(initials) >= maxPrefixLen {
			break
		}
		for _, r := range word {
			initials = append(initials, unicode.ToUpper(r))
			break
		}
	}

	return fmt.Sprintf("%s_%s_%s", string(initials), date, suffix)
}
