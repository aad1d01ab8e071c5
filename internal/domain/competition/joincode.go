package competition

import (
	"crypto/rand"
	"fmt"
	"hash/fnv"
	"math/big"
	"strings"
)

// NewJoinCode builds a shareable invite code: up to 8 alphanumeric characters
// of the competition name, a 3-digit owner discriminator and a 5-digit random
// suffix, uppercased. Callers must retry on collision.
func NewJoinCode(name, ownerID string) (string, error) {
	base := alnumOnly(name)
	if len(base) > 8 {
		base = base[:8]
	}

	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(ownerID))
	owner := fmt.Sprintf("%03d", hasher.Sum32()%1000)

	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", fmt.Errorf("read join code randomness: %w", err)
	}
	suffix := 10000 + n.Int64()

	return strings.ToUpper(fmt.Sprintf("%s%s%d", base, owner, suffix)), nil
}

func alnumOnly(v string) string {
	var out strings.Builder
	for _, r := range v {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
		}
	}
	return out.String()
}
