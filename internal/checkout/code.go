package checkout

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// codeEncoding drops padding; 5 random bytes come out as 8 characters.
var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newOrderCode builds a human-readable order code such as "AH-K7Q2M9FA".
// Uniqueness is enforced by the orders.code index; callers retry on
// collision.
func newOrderCode(prefix string) string {
	id := uuid.New()
	suffix := strings.ToUpper(codeEncoding.EncodeToString(id[:5]))
	return fmt.Sprintf("%s-%s", prefix, suffix)
}
