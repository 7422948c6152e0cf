package export

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// CalDAVPublisher выкладывает события календаря на CalDAV сервер.
// Каждое событие (вместе с изменёнными вхождениями) - отдельный объект <uid>.ics.
type CalDAVPublisher struct {
	client       *caldav.Client
	calendarPath string
}

func NewCalDAVPublisher(endpoint, username, password, calendarPath string) (*CalDAVPublisher, error) {
	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: 30 * time.Second}, username, password)

	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	if !strings.HasSuffix(calendarPath, "/") {
		calendarPath += "/"
	}

	return &CalDAVPublisher{client: client, calendarPath: calendarPath}, nil
}

// Publish выкладывает все события календаря, перезаписывая существующие с тем же UID
func (p *CalDAVPublisher) Publish(ctx context.Context, cal *ical.Calendar) (int, error) {
	objects := SplitByUID(cal)
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := p.client.PutCalendarObject(ctx, p.calendarPath+obj.UID+".ics", obj.Calendar); err != nil {
			return 0, fmt.Errorf("put calendar object %s: %w", obj.UID, err)
		}
	}
	return len(objects), nil
}

// CalendarObject календарь из событий с одним UID
type CalendarObject struct {
	UID      string
	Calendar *ical.Calendar
}

// SplitByUID разбивает календарь на объекты по UID в порядке первого появления
func SplitByUID(cal *ical.Calendar) []CalendarObject {
	var out []CalendarObject
	index := make(map[string]int)

	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		uid := ""
		if prop := child.Props.Get(ical.PropUID); prop != nil {
			uid = prop.Value
		}
		if uid == "" {
			continue
		}

		i, ok := index[uid]
		if !ok {
			obj := ical.NewCalendar()
			obj.Props.SetText(ical.PropVersion, "2.0")
			obj.Props.SetText(ical.PropProductID, productID)
			i = len(out)
			index[uid] = i
			out = append(out, CalendarObject{UID: uid, Calendar: obj})
		}
		out[i].Calendar.Children = append(out[i].Calendar.Children, child)
	}

	return out
}
