package caldav

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

const (
	defaultHost = "https://caldav.fastmail.com"

	// unnamedCalendar is the display name for collections that carry none.
	unnamedCalendar = "Unnamed Calendar"
)

// Client is a CalDAV client for one account. Every request carries HTTP
// Basic auth.
type Client struct {
	username string
	password string
	host     string
	httpc    *http.Client
}

func NewClient(username, password string) *Client {
	return &Client{
		username: username,
		password: password,
		host:     defaultHost,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

// userBase is the account's calendar home collection.
func (c *Client) userBase() string {
	return c.host + "/dav/calendars/user/" + c.username + "/"
}

// absoluteURL resolves a server href against the configured host. Hrefs that
// are already absolute pass through.
func (c *Client) absoluteURL(href string) string {
	if strings.Contains(href, "://") {
		return href
	}
	return c.host + href
}

// do issues one authenticated request and screens the status code. 401 and
// 403 become AuthError; transport failures become NetworkError.
func (c *Client) do(ctx context.Context, method, url, depth, body string) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	if depth != "" {
		req.Header.Set("Depth", depth)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Op: method + " " + url, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, &errs.AuthError{Backend: "caldav", Status: resp.StatusCode}
	}
	return resp, nil
}

// multistatus mirrors the DAV:multistatus response envelope. Namespaces are
// ignored on decode, so the same shape serves PROPFIND and REPORT.
type multistatus struct {
	XMLName   xml.Name      `xml:"multistatus"`
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href      string     `xml:"href"`
	Propstats []propstat `xml:"propstat"`
}

type propstat struct {
	Status string  `xml:"status"`
	Prop   davProp `xml:"prop"`
}

type davProp struct {
	DisplayName  string       `xml:"displayname"`
	Description  string       `xml:"calendar-description"`
	Color        string       `xml:"calendar-color"`
	ETag         string       `xml:"getetag"`
	CalendarData string       `xml:"calendar-data"`
	ResourceType resourceType `xml:"resourcetype"`
}

type resourceType struct {
	Calendar *struct{} `xml:"calendar"`
}

// prop returns the merged props of the response's OK propstat blocks.
func (r davResponse) prop() davProp {
	var merged davProp
	for _, ps := range r.Propstats {
		if ps.Status != "" && !strings.Contains(ps.Status, "200") {
			continue
		}
		p := ps.Prop
		if p.DisplayName != "" {
			merged.DisplayName = p.DisplayName
		}
		if p.Description != "" {
			merged.Description = p.Description
		}
		if p.Color != "" {
			merged.Color = p.Color
		}
		if p.ETag != "" {
			merged.ETag = p.ETag
		}
		if p.CalendarData != "" {
			merged.CalendarData = p.CalendarData
		}
		if p.ResourceType.Calendar != nil {
			merged.ResourceType.Calendar = p.ResourceType.Calendar
		}
	}
	return merged
}

func (c *Client) multistatusRequest(ctx context.Context, method, url, depth, body string) (*multistatus, error) {
	resp, err := c.do(ctx, method, url, depth, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: HTTP %d", method, url, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.NetworkError{Op: method + " " + url, Err: err}
	}
	var ms multistatus
	if err := xml.Unmarshal(raw, &ms); err != nil {
		return nil, fmt.Errorf("%s %s: parse multistatus: %w", method, url, err)
	}
	return &ms, nil
}

// normalizeColor reduces vendor color values to a plain token. Some servers
// wrap the value in quotes or escape it.
func normalizeColor(color string) string {
	return strings.Trim(strings.TrimSpace(color), `"'\`)
}

const listCalendarsBody = `<?xml version="1.0" encoding="utf-8" ?>
<d:propfind xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav" xmlns:ic="http://apple.com/ns/ical/">
  <d:prop>
    <d:resourcetype/>
    <d:displayname/>
    <c:calendar-description/>
    <ic:calendar-color/>
  </d:prop>
</d:propfind>`

// ListCalendars lists the account's calendar collections. The calendar home
// itself and non-calendar collections are skipped.
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	ms, err := c.multistatusRequest(ctx, "PROPFIND", c.userBase(), "1", listCalendarsBody)
	if err != nil {
		return nil, err
	}

	var calendars []Calendar
	for _, r := range ms.Responses {
		p := r.prop()
		if p.ResourceType.Calendar == nil {
			continue
		}
		name := p.DisplayName
		if name == "" {
			name = unnamedCalendar
		}
		url := c.absoluteURL(r.Href)
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		calendars = append(calendars, Calendar{
			URL:         url,
			DisplayName: name,
			Description: p.Description,
			Color:       normalizeColor(p.Color),
		})
	}
	return calendars, nil
}

func eventQueryBody(start, end *time.Time) string {
	timeRange := ""
	if start != nil || end != nil {
		attrs := ""
		if start != nil {
			attrs += fmt.Sprintf(" start=%q", start.UTC().Format(timeToken))
		}
		if end != nil {
			attrs += fmt.Sprintf(" end=%q", end.UTC().Format(timeToken))
		}
		timeRange = "<c:time-range" + attrs + "/>"
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<c:calendar-query xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:getetag/>
    <c:calendar-data/>
  </d:prop>
  <c:filter>
    <c:comp-filter name="VCALENDAR">
      <c:comp-filter name="VEVENT">%s</c:comp-filter>
    </c:comp-filter>
  </c:filter>
</c:calendar-query>`, timeRange)
}

// ListEvents lists the events of one calendar collection, optionally bounded
// to a server-side time range.
func (c *Client) ListEvents(ctx context.Context, calendarURL string, start, end *time.Time) ([]CalendarEvent, error) {
	ms, err := c.multistatusRequest(ctx, "REPORT", c.absoluteURL(calendarURL), "1", eventQueryBody(start, end))
	if err != nil {
		return nil, err
	}

	var events []CalendarEvent
	for _, r := range ms.Responses {
		p := r.prop()
		if p.CalendarData == "" {
			continue
		}
		events = append(events, decodeEvent(c.absoluteURL(r.Href), p.ETag, p.CalendarData))
	}
	return events, nil
}

// collectionOf derives the owning collection URL of an object: strip the
// final path segment, keep the trailing slash.
func collectionOf(objectURL string) string {
	trimmed := strings.TrimSuffix(objectURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return objectURL
	}
	return trimmed[:idx+1]
}

// GetEventByURL fetches one event by its object URL. A missing object is a
// normal outcome and returns (nil, nil).
func (c *Client) GetEventByURL(ctx context.Context, eventURL string) (*CalendarEvent, error) {
	eventURL = c.absoluteURL(eventURL)
	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<c:calendar-multiget xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:getetag/>
    <c:calendar-data/>
  </d:prop>
  <d:href>%s</d:href>
</c:calendar-multiget>`, hrefOf(eventURL))

	ms, err := c.multistatusRequest(ctx, "REPORT", collectionOf(eventURL), "1", body)
	if err != nil {
		return nil, err
	}
	for _, r := range ms.Responses {
		p := r.prop()
		if p.CalendarData == "" {
			continue
		}
		event := decodeEvent(c.absoluteURL(r.Href), p.ETag, p.CalendarData)
		return &event, nil
	}
	return nil, nil
}

// hrefOf reduces an absolute URL to its path for use inside a DAV body.
func hrefOf(absolute string) string {
	idx := strings.Index(absolute, "://")
	if idx < 0 {
		return absolute
	}
	rest := absolute[idx+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "/"
	}
	return rest[slash:]
}

// CreateEvent writes a new event into the collection and returns the new
// object's URL.
func (c *Client) CreateEvent(ctx context.Context, calendarURL string, event NewEvent) (string, error) {
	uid := uuid.NewString()
	collection := strings.TrimSuffix(c.absoluteURL(calendarURL), "/") + "/"
	objectURL := collection + uid + ".ics"

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, objectURL, strings.NewReader(encodeEvent(uid, event)))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &errs.NetworkError{Op: "PUT " + objectURL, Err: err}
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", &errs.AuthError{Backend: "caldav", Status: resp.StatusCode}
	case http.StatusCreated, http.StatusNoContent, http.StatusOK:
		return objectURL, nil
	default:
		return "", fmt.Errorf("PUT %s: HTTP %d", objectURL, resp.StatusCode)
	}
}

// DeleteEvent deletes the object unconditionally; no If-Match precondition
// is sent.
func (c *Client) DeleteEvent(ctx context.Context, eventURL string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.absoluteURL(eventURL), "", "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DELETE %s: HTTP %d", eventURL, resp.StatusCode)
	}
	return nil
}
