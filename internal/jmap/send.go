package jmap

import (
	"context"
	"fmt"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

// identity returns the account's first sending identity.
func (c *Client) identity(ctx context.Context) (*Identity, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	b := NewBatch(CapCore, CapSubmission)
	b.Call("Identity/get", map[string]any{
		"accountId": session.AccountID,
		"ids":       nil,
	})

	resp, err := c.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out struct {
		List []Identity `json:"list"`
	}
	if err := resp.DecodeResult(0, &out); err != nil {
		return nil, err
	}
	if len(out.List) == 0 {
		return nil, &errs.NotFoundError{Kind: "identity", ID: "default"}
	}
	return &out.List[0], nil
}

func toAddresses(emails []string) []map[string]string {
	if len(emails) == 0 {
		return nil
	}
	out := make([]map[string]string, 0, len(emails))
	for _, e := range emails {
		out = append(out, map[string]string{"email": e})
	}
	return out
}

// SendEmail sends a message through the three-step submission choreography:
// create a draft in the Drafts mailbox, create a submission referencing it,
// then relabel the draft into Sent. Each step's failure is attributed to
// that step. The sequential calls are paced by the client's rate limiter.
func (c *Client) SendEmail(ctx context.Context, out OutgoingEmail) (string, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return "", err
	}

	draftsID, err := c.ResolveMailbox(ctx, "drafts")
	if err != nil {
		return "", fmt.Errorf("resolve drafts mailbox: %w", err)
	}
	sentID, err := c.ResolveMailbox(ctx, "sent")
	if err != nil {
		return "", fmt.Errorf("resolve sent mailbox: %w", err)
	}
	identity, err := c.identity(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}

	// Step 1: create the draft record.
	draft := map[string]any{
		"mailboxIds": map[string]bool{draftsID: true},
		"keywords":   map[string]bool{"$draft": true, "$seen": true},
		"from":       []map[string]string{{"email": identity.Email, "name": identity.Name}},
		"to":         toAddresses(out.To),
		"subject":    out.Subject,
		"bodyValues": map[string]any{
			"body": map[string]any{"value": out.Body},
		},
		"textBody": []map[string]any{
			{"partId": "body", "type": "text/plain"},
		},
	}
	if len(out.CC) > 0 {
		draft["cc"] = toAddresses(out.CC)
	}
	if len(out.BCC) > 0 {
		draft["bcc"] = toAddresses(out.BCC)
	}

	created, err := c.emailSet(ctx, map[string]any{
		"create": map[string]any{"draft": draft},
	})
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	draftRef, ok := created.Created["draft"]
	if !ok {
		if itemErr, failed := created.NotCreated["draft"]; failed {
			return "", fmt.Errorf("create draft: %s", (&errs.ProtocolError{
				Method:      "Email/set",
				Type:        itemErr.Type,
				Description: itemErr.Description,
			}).Error())
		}
		return "", fmt.Errorf("create draft: backend returned no created record")
	}

	if err := c.pace(ctx); err != nil {
		return "", err
	}

	// Step 2: create the submission referencing the draft.
	b := NewBatch(CapCore, CapMail, CapSubmission)
	b.Call("EmailSubmission/set", map[string]any{
		"accountId": session.AccountID,
		"create": map[string]any{
			"submission": map[string]any{
				"identityId": identity.ID,
				"emailId":    draftRef.ID,
			},
		},
	})
	resp, err := c.Execute(ctx, b)
	if err != nil {
		return "", fmt.Errorf("submit email: %w", err)
	}
	var submission setResponse
	if err := resp.DecodeResult(0, &submission); err != nil {
		return "", fmt.Errorf("submit email: %w", err)
	}
	if itemErr, failed := submission.NotCreated["submission"]; failed {
		return "", fmt.Errorf("submit email: %s", (&errs.ProtocolError{
			Method:      "EmailSubmission/set",
			Type:        itemErr.Type,
			Description: itemErr.Description,
		}).Error())
	}

	if err := c.pace(ctx); err != nil {
		return "", err
	}

	// Step 3: relabel the draft into Sent.
	moved, err := c.emailSet(ctx, map[string]any{
		"update": map[string]any{
			draftRef.ID: map[string]any{
				"mailboxIds":      map[string]bool{sentID: true},
				"keywords/$draft": nil,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("move to sent: %w", err)
	}
	if err := perItemError("move to sent", moved.NotUpdated); err != nil {
		return "", err
	}

	return draftRef.ID, nil
}
