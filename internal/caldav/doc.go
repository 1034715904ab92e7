// Package caldav talks to the Fastmail CalDAV endpoint with HTTP Basic
// auth. Collections are discovered with PROPFIND, events are queried with
// REPORT and written with PUT. The iCalendar documents themselves are
// handled by a small line-oriented codec in ical.go; nothing outside that
// file touches document syntax.
package caldav
