package jmap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

// Properties requested on Email/get. The summary set keeps list responses
// small; the full set adds bodies and attachments for single-message gets.
var (
	emailSummaryProperties = []any{
		"id", "threadId", "mailboxIds", "keywords", "from", "to",
		"subject", "receivedAt", "preview",
	}
	emailFullProperties = []any{
		"id", "threadId", "mailboxIds", "keywords", "from", "to", "cc",
		"subject", "receivedAt", "preview", "attachments", "bodyValues",
		"textBody",
	}
)

type emailList struct {
	List []Email `json:"list"`
}

type mailboxList struct {
	List []Mailbox `json:"list"`
}

// Mailboxes lists all mailboxes of the account.
func (c *Client) Mailboxes(ctx context.Context) ([]Mailbox, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	b := NewBatch(CapCore, CapMail)
	b.Call("Mailbox/get", map[string]any{
		"accountId": session.AccountID,
		"ids":       nil,
	})

	resp, err := c.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out mailboxList
	if err := resp.DecodeResult(0, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

// ResolveMailbox maps a mailbox name to its id. Matching is case-insensitive
// against both the display name and the role.
func (c *Client) ResolveMailbox(ctx context.Context, name string) (string, error) {
	mailboxes, err := c.Mailboxes(ctx)
	if err != nil {
		return "", err
	}
	for _, mb := range mailboxes {
		if strings.EqualFold(mb.Name, name) || strings.EqualFold(mb.Role, name) {
			return mb.ID, nil
		}
	}
	return "", &errs.NotFoundError{Kind: "mailbox", ID: name}
}

// queryThenFetch runs the mandatory two-call chain for list and search
// operations: Email/query under the filter, then Email/get fetching the
// full records through a back-reference to the id list.
func (c *Client) queryThenFetch(ctx context.Context, filter map[string]any, limit int, properties []any) ([]Email, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	queryArgs := map[string]any{
		"accountId": session.AccountID,
		"sort": []map[string]any{
			{"property": "receivedAt", "isAscending": false},
		},
		"limit": limit,
	}
	if filter != nil {
		queryArgs["filter"] = filter
	}

	b := NewBatch(CapCore, CapMail)
	queryID := b.Call("Email/query", queryArgs)
	b.Call("Email/get", map[string]any{
		"accountId":  session.AccountID,
		"#ids":       b.Ref(queryID, "/ids"),
		"properties": properties,
	})

	resp, err := c.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out emailList
	if err := resp.DecodeResult(1, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

// RecentEmails lists the most recent emails in the named mailbox, newest
// first.
func (c *Client) RecentEmails(ctx context.Context, mailbox string, limit int) ([]Email, error) {
	mailboxID, err := c.ResolveMailbox(ctx, mailbox)
	if err != nil {
		return nil, err
	}
	return c.queryThenFetch(ctx, map[string]any{"inMailbox": mailboxID}, limit, emailSummaryProperties)
}

// SearchEmails runs a full-text search across the account.
func (c *Client) SearchEmails(ctx context.Context, text string, limit int) ([]Email, error) {
	return c.queryThenFetch(ctx, map[string]any{"text": text}, limit, emailSummaryProperties)
}

// AdvancedSearch composes an AND-filter from only the criteria actually
// supplied; absent criteria are omitted entirely.
func (c *Client) AdvancedSearch(ctx context.Context, criteria SearchCriteria, limit int) ([]Email, error) {
	var conditions []map[string]any

	if criteria.From != "" {
		conditions = append(conditions, map[string]any{"from": criteria.From})
	}
	if criteria.To != "" {
		conditions = append(conditions, map[string]any{"to": criteria.To})
	}
	if criteria.Subject != "" {
		conditions = append(conditions, map[string]any{"subject": criteria.Subject})
	}
	if criteria.Text != "" {
		conditions = append(conditions, map[string]any{"text": criteria.Text})
	}
	if criteria.HasAttachment != nil {
		conditions = append(conditions, map[string]any{"hasAttachment": *criteria.HasAttachment})
	}
	if criteria.IsUnread != nil {
		if *criteria.IsUnread {
			conditions = append(conditions, map[string]any{"notKeyword": "$seen"})
		} else {
			conditions = append(conditions, map[string]any{"hasKeyword": "$seen"})
		}
	}
	if criteria.Mailbox != "" {
		mailboxID, err := c.ResolveMailbox(ctx, criteria.Mailbox)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, map[string]any{"inMailbox": mailboxID})
	}
	if criteria.After != nil {
		conditions = append(conditions, map[string]any{"after": criteria.After.UTC().Format(time.RFC3339)})
	}
	if criteria.Before != nil {
		conditions = append(conditions, map[string]any{"before": criteria.Before.UTC().Format(time.RFC3339)})
	}

	var filter map[string]any
	switch len(conditions) {
	case 0:
		filter = nil
	case 1:
		filter = conditions[0]
	default:
		filter = map[string]any{"operator": "AND", "conditions": conditions}
	}
	return c.queryThenFetch(ctx, filter, limit, emailSummaryProperties)
}

// GetEmail fetches a single email with full body content.
func (c *Client) GetEmail(ctx context.Context, id string) (*Email, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	b := NewBatch(CapCore, CapMail)
	b.Call("Email/get", map[string]any{
		"accountId":           session.AccountID,
		"ids":                 []string{id},
		"properties":          emailFullProperties,
		"fetchTextBodyValues": true,
	})

	resp, err := c.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out emailList
	if err := resp.DecodeResult(0, &out); err != nil {
		return nil, err
	}
	if len(out.List) == 0 {
		return nil, &errs.NotFoundError{Kind: "email", ID: id}
	}
	return &out.List[0], nil
}

// GetThread fetches every email of a thread via a Thread/get then Email/get
// chain, back-referencing the thread's email id list.
func (c *Client) GetThread(ctx context.Context, threadID string) ([]Email, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	b := NewBatch(CapCore, CapMail)
	threadCall := b.Call("Thread/get", map[string]any{
		"accountId": session.AccountID,
		"ids":       []string{threadID},
	})
	b.Call("Email/get", map[string]any{
		"accountId":  session.AccountID,
		"#ids":       b.Ref(threadCall, "/list/*/emailIds"),
		"properties": emailSummaryProperties,
	})

	resp, err := c.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out emailList
	if err := resp.DecodeResult(1, &out); err != nil {
		return nil, err
	}
	if len(out.List) == 0 {
		return nil, &errs.NotFoundError{Kind: "thread", ID: threadID}
	}
	return out.List, nil
}

// setError mirrors the per-item error shape of Email/set responses.
type setError struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// setCreated is the server-assigned identity of a created record.
type setCreated struct {
	ID string `json:"id"`
}

type setResponse struct {
	Created      map[string]setCreated      `json:"created"`
	NotCreated   map[string]setError        `json:"notCreated"`
	Updated      map[string]json.RawMessage `json:"updated"`
	NotUpdated   map[string]setError        `json:"notUpdated"`
	Destroyed    []string                   `json:"destroyed"`
	NotDestroyed map[string]setError        `json:"notDestroyed"`
}

// perItemError flattens a map of per-id failures into one error listing the
// ids. No rollback is attempted; the backend may have applied other items.
func perItemError(op string, failed map[string]setError) error {
	if len(failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(failed))
	for id := range failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s (%s)", id, failed[id].Type))
	}
	return fmt.Errorf("%s failed for %d email(s): %s", op, len(ids), strings.Join(parts, ", "))
}

// emailSet issues one Email/set call and decodes the response.
func (c *Client) emailSet(ctx context.Context, args map[string]any) (*setResponse, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	args["accountId"] = session.AccountID

	b := NewBatch(CapCore, CapMail)
	b.Call("Email/set", args)

	resp, err := c.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out setResponse
	if err := resp.DecodeResult(0, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead sets or clears the $seen keyword on one email. Re-applying the
// same state is idempotent.
func (c *Client) MarkRead(ctx context.Context, id string, read bool) error {
	return c.BulkMarkRead(ctx, []string{id}, read)
}

// BulkMarkRead sets or clears the $seen keyword on all ids in ONE batched
// update call.
func (c *Client) BulkMarkRead(ctx context.Context, ids []string, read bool) error {
	update := make(map[string]any, len(ids))
	for _, id := range ids {
		if read {
			update[id] = map[string]any{"keywords/$seen": true}
		} else {
			update[id] = map[string]any{"keywords/$seen": nil}
		}
	}
	out, err := c.emailSet(ctx, map[string]any{"update": update})
	if err != nil {
		return err
	}
	return perItemError("mark read", out.NotUpdated)
}

// MoveEmails relabels all ids into the named mailbox in one update call.
func (c *Client) MoveEmails(ctx context.Context, ids []string, mailbox string) error {
	mailboxID, err := c.ResolveMailbox(ctx, mailbox)
	if err != nil {
		return err
	}
	update := make(map[string]any, len(ids))
	for _, id := range ids {
		update[id] = map[string]any{"mailboxIds": map[string]bool{mailboxID: true}}
	}
	out, err := c.emailSet(ctx, map[string]any{"update": update})
	if err != nil {
		return err
	}
	return perItemError("move", out.NotUpdated)
}

// DeleteEmails destroys all ids in one call.
func (c *Client) DeleteEmails(ctx context.Context, ids []string) error {
	out, err := c.emailSet(ctx, map[string]any{"destroy": ids})
	if err != nil {
		return err
	}
	return perItemError("delete", out.NotDestroyed)
}

// DownloadAttachment fetches the named attachment part of an email through
// the session's download URL template.
func (c *Client) DownloadAttachment(ctx context.Context, emailID, partID string) ([]byte, *Attachment, error) {
	email, err := c.GetEmail(ctx, emailID)
	if err != nil {
		return nil, nil, err
	}

	var attachment *Attachment
	for i := range email.Attachments {
		a := &email.Attachments[i]
		if a.PartID == partID || a.BlobID == partID {
			attachment = a
			break
		}
	}
	if attachment == nil {
		return nil, nil, &errs.NotFoundError{Kind: "attachment", ID: partID}
	}

	session, err := c.Session(ctx)
	if err != nil {
		return nil, nil, err
	}
	name := attachment.Name
	if name == "" {
		name = "attachment"
	}
	downloadURL := strings.NewReplacer(
		"{accountId}", url.PathEscape(session.AccountID),
		"{blobId}", url.PathEscape(attachment.BlobID),
		"{name}", url.PathEscape(name),
		"{type}", url.QueryEscape(attachment.Type),
	).Replace(session.DownloadURL)

	data, err := c.download(ctx, downloadURL)
	if err != nil {
		return nil, nil, err
	}
	return data, attachment, nil
}
