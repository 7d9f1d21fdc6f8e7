package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewDocumentNumber builds a human-readable document number such as
// SO-20260115-1A2B3C4D from a prefix, a date and the document id.
func NewDocumentNumber(prefix string, id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), strings.ToUpper(id.String()[:8]))
}
