package notification

import (
	"strconv"
	"strings"
	"time"

	"order-console/internal/domain"
)

// TimestampLayout prints {timestamp} as day/month/year with a 24-hour clock.
const TimestampLayout = "02/01/2006 15:04:05"

// Extra carries values that are not part of the event itself.
type Extra struct {
	// Nickname of the employee who triggered the change.
	Nickname string
}

// Renderer substitutes event fields into message templates. The zero value
// renders timestamps in UTC.
type Renderer struct {
	Location *time.Location
}

func NewRenderer(loc *time.Location) Renderer {
	return Renderer{Location: loc}
}

// Render replaces every known placeholder in tmpl. Unknown placeholders are kept as-is.
func (r Renderer) Render(tmpl string, ev domain.NotificationEvent, extra Extra) string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	previous := ""
	if ev.PreviousStatus != nil {
		previous = string(*ev.PreviousStatus)
	}
	return strings.NewReplacer(
		"{order_id}", ev.OrderID,
		"{client_name}", ev.ClientName,
		"{account_count}", strconv.Itoa(ev.AccountCount),
		"{timezone}", ev.Timezone,
		"{timestamp}", ev.Timestamp.In(loc).Format(TimestampLayout),
		"{nickname}", extra.Nickname,
		"{previous_status}", previous,
		"{status}", string(ev.Status),
	).Replace(tmpl)
}
