package caldav

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bivex/caldav-mcp/internal/logging"
)

const calendarQueryBody = `<?xml version="1.0" encoding="utf-8" ?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:getetag/>
    <C:calendar-data/>
  </D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VEVENT">
        <C:time-range start="%s" end="%s"/>
      </C:comp-filter>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`

// calendar-data element contents, whatever namespace prefix the server
// chose. Matching is case-insensitive and spans lines.
var calendarDataRe = regexp.MustCompile(`(?is)<(?:[A-Za-z0-9_-]+:)?calendar-data[^>]*>(.*?)</(?:[A-Za-z0-9_-]+:)?calendar-data>`)

var xmlEntityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#13;", "\r",
	"&amp;", "&",
)

// QueryTimeRange issues a calendar-query REPORT against a collection and
// returns the raw iCalendar payloads the server matched. Any failure,
// from transport errors to unsupported-REPORT responses, yields an empty
// slice: the caller treats a silent server the same as an empty one and
// falls back to listing the collection itself.
func (c *Client) QueryTimeRange(ctx context.Context, path string, start, end time.Time) []string {
	body := fmt.Sprintf(calendarQueryBody,
		start.UTC().Format("20060102T150405Z"),
		end.UTC().Format("20060102T150405Z"))

	resp, err := c.do(ctx, "REPORT", path, body, map[string]string{
		"Content-Type": "application/xml; charset=utf-8",
		"Depth":        "1",
	})
	if err != nil {
		c.logger.Debug("calendar-query request failed", logging.Collection(path), logging.Err(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		c.logger.Debug("calendar-query rejected",
			logging.Collection(path), slog.Int("status_code", resp.StatusCode))
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Debug("calendar-query response unreadable", logging.Collection(path), logging.Err(err))
		return nil
	}

	var payloads []string
	for _, m := range calendarDataRe.FindAllStringSubmatch(string(data), -1) {
		payload := strings.TrimSpace(xmlEntityReplacer.Replace(m[1]))
		if payload == "" {
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}
