package chat

import (
	"time"

	"github.com/corddisc/corddisc/model"
)

// Consecutive messages from one sender share a header unless this much time
// separates them.
const headerGap = 5 * time.Minute

// NeedsHeader reports whether msgs[i] starts a new header group (avatar,
// name, timestamp). Pure function of the ordered window; recomputed on every
// window replacement.
func NeedsHeader(msgs []model.Message, i int) bool {
	if i <= 0 {
		return true
	}
	prev, cur := msgs[i-1], msgs[i]
	if prev.SenderID != cur.SenderID {
		return true
	}
	return cur.CreatedAt.Sub(prev.CreatedAt) > headerGap
}
