package jmap

import (
	"encoding/json"
	"time"
)

// Capability URNs used in batch requests and advertised in the session
// document.
const (
	CapCore       = "urn:ietf:params:jmap:core"
	CapMail       = "urn:ietf:params:jmap:mail"
	CapSubmission = "urn:ietf:params:jmap:submission"
	CapContacts   = "urn:ietf:params:jmap:contacts"
)

// Session is the discovery document fetched from <base>/jmap/session.
// It is fetched once and memoized for the client's lifetime. Unrecognized
// fields are ignored.
type Session struct {
	AccountID    string                     `json:"accountId"`
	APIURL       string                     `json:"apiUrl"`
	DownloadURL  string                     `json:"downloadUrl"`
	Capabilities map[string]json.RawMessage `json:"capabilities"`
}

// HasCapability reports whether the session advertises the given URN.
func (s *Session) HasCapability(urn string) bool {
	_, ok := s.Capabilities[urn]
	return ok
}

// Mailbox is a mail folder as returned by Mailbox/get.
type Mailbox struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TotalEmails  int64  `json:"totalEmails"`
	UnreadEmails int64  `json:"unreadEmails"`
}

// EmailAddress is a name/address pair.
type EmailAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Attachment describes one non-inline body part of an email.
type Attachment struct {
	PartID string `json:"partId"`
	BlobID string `json:"blobId"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
}

// BodyValue holds decoded body content keyed by part id.
type BodyValue struct {
	Value       string `json:"value"`
	IsTruncated bool   `json:"isTruncated"`
}

// Email is a message record. Only the fields the bridge uses are modeled;
// unrecognized fields are ignored on decode.
type Email struct {
	ID          string               `json:"id"`
	ThreadID    string               `json:"threadId"`
	MailboxIDs  map[string]bool      `json:"mailboxIds"`
	Keywords    map[string]bool      `json:"keywords"`
	From        []EmailAddress       `json:"from"`
	To          []EmailAddress       `json:"to"`
	CC          []EmailAddress       `json:"cc"`
	Subject     string               `json:"subject"`
	ReceivedAt  string               `json:"receivedAt"`
	Preview     string               `json:"preview"`
	Attachments []Attachment         `json:"attachments"`
	BodyValues  map[string]BodyValue `json:"bodyValues"`
}

// Unread reports whether the email lacks the $seen keyword.
func (e *Email) Unread() bool {
	return !e.Keywords["$seen"]
}

// Identity is a sending identity as returned by Identity/get.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OutgoingEmail is the write-only shape accepted by SendEmail.
type OutgoingEmail struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
}

// SearchCriteria describes an advanced search. Zero-valued fields are
// omitted from the composed filter entirely, never encoded as wildcards.
type SearchCriteria struct {
	From          string
	To            string
	Subject       string
	Text          string
	Mailbox       string
	HasAttachment *bool
	IsUnread      *bool
	After         *time.Time
	Before        *time.Time
}
