package petition

import (
	"fmt"
	"regexp"
	"time"
)

// NumberPattern matches generated petition numbers
var NumberPattern = regexp.MustCompile(`^P-\d{4}/\d{5}$`)

// Number derives a petition number from the clock: the year plus the last
// five digits of the millisecond timestamp
func Number(now time.Time) string {
	return fmt.Sprintf("P-%d/%05d", now.Year(), now.UnixMilli()%100000)
}

// BlobKey is the storage key for a petition's raw file
func BlobKey(petitionNumber, fileName string) string {
	return petitionNumber + "-" + fileName
}
