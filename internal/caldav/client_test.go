package caldav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

type recordedRequest struct {
	Method string
	Path   string
	Depth  string
	Header http.Header
	Body   string
}

// fakeDAV records every request and answers with a fixed status and body.
type fakeDAV struct {
	t        *testing.T
	mu       sync.Mutex
	server   *httptest.Server
	requests []recordedRequest
	status   int
	body     string
}

func newFakeDAV(t *testing.T) *fakeDAV {
	t.Helper()
	fd := &fakeDAV{t: t, status: http.StatusMultiStatus}
	fd.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		fd.mu.Lock()
		fd.requests = append(fd.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Depth:  r.Header.Get("Depth"),
			Header: r.Header.Clone(),
			Body:   string(raw),
		})
		status, body := fd.status, fd.body
		fd.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(fd.server.Close)
	return fd
}

func (fd *fakeDAV) client() *Client {
	c := NewClient("user@example.com", "app-password")
	c.host = fd.server.URL
	return c
}

func (fd *fakeDAV) respond(status int, body string) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.status = status
	fd.body = body
}

func (fd *fakeDAV) last() recordedRequest {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	require.NotEmpty(fd.t, fd.requests)
	return fd.requests[len(fd.requests)-1]
}

const calendarsFixture = `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav" xmlns:ic="http://apple.com/ns/ical/">
  <d:response>
    <d:href>/dav/calendars/user/user@example.com/</d:href>
    <d:propstat>
      <d:status>HTTP/1.1 200 OK</d:status>
      <d:prop><d:resourcetype><d:collection/></d:resourcetype></d:prop>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/dav/calendars/user/user@example.com/personal/</d:href>
    <d:propstat>
      <d:status>HTTP/1.1 200 OK</d:status>
      <d:prop>
        <d:resourcetype><d:collection/><c:calendar/></d:resourcetype>
        <d:displayname>Personal</d:displayname>
        <c:calendar-description>Private things</c:calendar-description>
        <ic:calendar-color>"#3B99FC"</ic:calendar-color>
      </d:prop>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/dav/calendars/user/user@example.com/generated</d:href>
    <d:propstat>
      <d:status>HTTP/1.1 200 OK</d:status>
      <d:prop>
        <d:resourcetype><d:collection/><c:calendar/></d:resourcetype>
      </d:prop>
    </d:propstat>
  </d:response>
</d:multistatus>`

func TestListCalendars(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusMultiStatus, calendarsFixture)
	client := fd.client()

	calendars, err := client.ListCalendars(context.Background())
	require.NoError(t, err)
	require.Len(t, calendars, 2, "the calendar home itself is not a calendar")

	assert.Equal(t, fd.server.URL+"/dav/calendars/user/user@example.com/personal/", calendars[0].URL)
	assert.Equal(t, "Personal", calendars[0].DisplayName)
	assert.Equal(t, "Private things", calendars[0].Description)
	assert.Equal(t, "#3B99FC", calendars[0].Color, "vendor quoting stripped")

	assert.Equal(t, "Unnamed Calendar", calendars[1].DisplayName)
	assert.True(t, len(calendars[1].URL) > 0 && calendars[1].URL[len(calendars[1].URL)-1] == '/',
		"collection URLs always end in a slash")

	req := fd.last()
	assert.Equal(t, "PROPFIND", req.Method)
	assert.Equal(t, "/dav/calendars/user/user@example.com/", req.Path)
	assert.Equal(t, "1", req.Depth)
}

const eventsFixture = `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:response>
    <d:href>/dav/calendars/user/user@example.com/personal/ev1.ics</d:href>
    <d:propstat>
      <d:status>HTTP/1.1 200 OK</d:status>
      <d:prop>
        <d:getetag>"etag-1"</d:getetag>
        <c:calendar-data>BEGIN:VCALENDAR
BEGIN:VEVENT
UID:ev1
SUMMARY:Standup
DTSTART:20240601T090000Z
DTEND:20240601T091500Z
END:VEVENT
END:VCALENDAR</c:calendar-data>
      </d:prop>
    </d:propstat>
  </d:response>
</d:multistatus>`

func TestListEventsWithTimeRange(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusMultiStatus, eventsFixture)
	client := fd.client()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	events, err := client.ListEvents(context.Background(), "/dav/calendars/user/user@example.com/personal/", &start, &end)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev1", events[0].UID)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, "20240601T090000Z", events[0].Start)
	assert.Equal(t, `"etag-1"`, events[0].ETag)

	req := fd.last()
	assert.Equal(t, "REPORT", req.Method)
	assert.Contains(t, req.Body, `start="20240601T000000Z"`)
	assert.Contains(t, req.Body, `end="20240602T000000Z"`)
}

func TestListEventsWithoutBoundsOmitsTimeRange(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusMultiStatus, eventsFixture)
	client := fd.client()

	_, err := client.ListEvents(context.Background(), "/dav/calendars/user/user@example.com/personal/", nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, fd.last().Body, "time-range")
}

func TestGetEventByURLQueriesOwningCollection(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusMultiStatus, eventsFixture)
	client := fd.client()

	event, err := client.GetEventByURL(context.Background(), "/dav/calendars/user/user@example.com/personal/ev1.ics")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "ev1", event.UID)

	req := fd.last()
	assert.Equal(t, "REPORT", req.Method)
	assert.Equal(t, "/dav/calendars/user/user@example.com/personal/", req.Path)
	assert.Contains(t, req.Body, "<d:href>/dav/calendars/user/user@example.com/personal/ev1.ics</d:href>")
	assert.Contains(t, req.Body, "calendar-multiget")
}

func TestGetEventByURLAbsentIsNotAnError(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusMultiStatus, `<?xml version="1.0"?><d:multistatus xmlns:d="DAV:"></d:multistatus>`)
	client := fd.client()

	event, err := client.GetEventByURL(context.Background(), "/dav/calendars/user/user@example.com/personal/gone.ics")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestCreateEvent(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusCreated, "")
	client := fd.client()

	url, err := client.CreateEvent(context.Background(), "/dav/calendars/user/user@example.com/personal", NewEvent{
		Title: "Review",
		Start: time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC),
		Participants: []Participant{
			{Email: "carol@example.com", Name: "Carol"},
		},
	})
	require.NoError(t, err)

	req := fd.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Regexp(t, regexp.MustCompile(`^/dav/calendars/user/user@example\.com/personal/[0-9a-f-]{36}\.ics$`), req.Path)
	assert.Equal(t, fd.server.URL+req.Path, url)
	assert.Contains(t, req.Header.Get("Content-Type"), "text/calendar")
	assert.Contains(t, req.Body, "SUMMARY:Review\r\n")
	assert.Contains(t, req.Body, "ATTENDEE;CN=Carol:mailto:carol@example.com\r\n")
	assert.Contains(t, req.Body, "DTSTART:20240603T140000Z\r\n")
}

func TestDeleteEventUnconditional(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusNoContent, "")
	client := fd.client()

	err := client.DeleteEvent(context.Background(), "/dav/calendars/user/user@example.com/personal/ev1.ics")
	require.NoError(t, err)

	req := fd.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Empty(t, req.Header.Get("If-Match"))
}

func TestBasicAuthOnEveryRequest(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusMultiStatus, calendarsFixture)
	client := fd.client()

	_, err := client.ListCalendars(context.Background())
	require.NoError(t, err)

	auth := fd.last().Header.Get("Authorization")
	assert.Contains(t, auth, "Basic ")
}

func TestAuthError(t *testing.T) {
	fd := newFakeDAV(t)
	fd.respond(http.StatusUnauthorized, "")
	client := fd.client()

	_, err := client.ListCalendars(context.Background())
	var authErr *errs.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "caldav", authErr.Backend)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestNetworkError(t *testing.T) {
	fd := newFakeDAV(t)
	client := fd.client()
	fd.server.Close()

	_, err := client.ListCalendars(context.Background())
	var netErr *errs.NetworkError
	require.ErrorAs(t, err, &netErr)
}
