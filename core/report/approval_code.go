package report

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"
)

// mockable
var (
	nowFunc  = time.Now
	randFunc = randomSuffix
)

func randomSuffix() int {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the platform is broken; a zero suffix
		// still yields a well-formed code.
		return 0
	}
	return int(n.Int64())
}

func sanitizeNIP(nip string) string {
	var b strings.Builder
	for _, r := range nip {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// makeApprovalCode derives the one-way approval stamp of a submission.
// The random suffix is not checked against existing codes; collisions across
// submissions are possible in principle but vanishingly unlikely within a
// period.
func makeApprovalCode(periodCode, staffNIP string) string {
	return fmt.Sprintf("%s/%s-%06d", periodCode, sanitizeNIP(staffNIP), randFunc())
}
