package journals

import (
	"fmt"
	"math/rand"
	"time"
)

// DefaultNumberPrefix is used when no prefix is configured.
const DefaultNumberPrefix = "JRN"

// maxNumberAttempts bounds the unique-constraint retry loop when the random
// suffix collides.
const maxNumberAttempts = 5

// NewNumber builds a human-readable journal number: <PREFIX>-<YYYYMMDD>-<NNNN>.
// The four-digit suffix is random; collisions are handled by the caller via
// unique-constraint retry, not by locking.
func NewNumber(prefix string, date time.Time) string {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), rand.Intn(10000))
}
