package caldav

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// timeToken is the compact UTC instant format used in calendar documents.
const timeToken = "20060102T150405Z"

// fieldPattern matches a line `NAME[;params]:value`. Parameters are
// ignored; only the value after the colon is captured.
func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(name) + `(?:;[^:\r\n]*)?:(.*)$`)
}

// extractField returns the value of the first matching field line, or ""
// when the document has no such line.
func extractField(doc, name string) string {
	match := fieldPattern(name).FindStringSubmatch(doc)
	if match == nil {
		return ""
	}
	return strings.TrimRight(match[1], "\r")
}

// extractAllFields returns the values of every matching field line, in
// document order.
func extractAllFields(doc, name string) []string {
	matches := fieldPattern(name).FindAllStringSubmatch(doc, -1)
	if matches == nil {
		return nil
	}
	values := make([]string, 0, len(matches))
	for _, match := range matches {
		values = append(values, strings.TrimRight(match[1], "\r"))
	}
	return values
}

// decodeEvent reads an event out of a calendar document. A document without
// a UID line takes the object URL as its identity.
func decodeEvent(objectURL, etag, doc string) CalendarEvent {
	uid := extractField(doc, "UID")
	if uid == "" {
		uid = objectURL
	}
	event := CalendarEvent{
		URL:         objectURL,
		ETag:        etag,
		UID:         uid,
		Title:       extractField(doc, "SUMMARY"),
		Description: extractField(doc, "DESCRIPTION"),
		Location:    extractField(doc, "LOCATION"),
		Start:       extractField(doc, "DTSTART"),
		End:         extractField(doc, "DTEND"),
	}
	for _, value := range extractAllFields(doc, "ATTENDEE") {
		event.Attendees = append(event.Attendees, strings.TrimPrefix(value, "mailto:"))
	}
	return event
}

// encodeEvent renders a complete VCALENDAR document for the event. Lines are
// CRLF-terminated as the format requires.
func encodeEvent(uid string, event NewEvent) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//fastmail-mcp//EN",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + time.Now().UTC().Format(timeToken),
		"DTSTART:" + event.Start.UTC().Format(timeToken),
		"DTEND:" + event.End.UTC().Format(timeToken),
		"SUMMARY:" + event.Title,
	}
	if event.Description != "" {
		lines = append(lines, "DESCRIPTION:"+event.Description)
	}
	if event.Location != "" {
		lines = append(lines, "LOCATION:"+event.Location)
	}
	for _, participant := range event.Participants {
		if participant.Name != "" {
			lines = append(lines, fmt.Sprintf("ATTENDEE;CN=%s:mailto:%s", participant.Name, participant.Email))
		} else {
			lines = append(lines, "ATTENDEE:mailto:"+participant.Email)
		}
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}
