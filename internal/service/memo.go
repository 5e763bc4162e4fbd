package service

import (
	"time"

	"github.com/punchamoorthee/stayledger/internal/gateway"
	"github.com/punchamoorthee/stayledger/internal/money"
)

const memoPrefix = "BK"

// Memo builds the payment memo BK<listing>:<YYMMDD>-<YYMMDD>. The listing id
// is cut so the memo never exceeds the gateway's byte limit.
func Memo(listingID string, checkIn, checkOut time.Time) string {
	dates := ":" + money.CompactDate(checkIn) + "-" + money.CompactDate(checkOut)
	room := gateway.MaxMemoBytes - len(memoPrefix) - len(dates)
	id := listingID
	if len(id) > room {
		id = truncateBytes(id, room)
	}
	return memoPrefix + id + dates
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	cut := n
	for cut > 0 && cut < len(s) && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
