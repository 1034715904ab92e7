package contacts

import (
	"context"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
	"github.com/mailbridge/fastmail-mcp/internal/jmap"
)

// Client exposes contact operations on top of the mail client's batch engine
// and memoized session.
type Client struct {
	jc *jmap.Client
}

func NewClient(jc *jmap.Client) *Client {
	return &Client{jc: jc}
}

// session returns the account session after verifying it advertises the
// contacts capability. The gate runs before any contact call goes out.
func (c *Client) session(ctx context.Context) (*jmap.Session, error) {
	session, err := c.jc.Session(ctx)
	if err != nil {
		return nil, err
	}
	if !session.HasCapability(jmap.CapContacts) {
		return nil, &errs.CapabilityError{Capability: jmap.CapContacts}
	}
	return session, nil
}

type contactList struct {
	List []Contact `json:"list"`
}

// queryThenFetch chains Contact/query and Contact/get in one batch, the get
// back-referencing the query's id list.
func (c *Client) queryThenFetch(ctx context.Context, session *jmap.Session, filter map[string]any, limit int) ([]Contact, error) {
	queryArgs := map[string]any{
		"accountId": session.AccountID,
		"limit":     limit,
	}
	if filter != nil {
		queryArgs["filter"] = filter
	}

	b := jmap.NewBatch(jmap.CapCore, jmap.CapContacts)
	queryID := b.Call("Contact/query", queryArgs)
	b.Call("Contact/get", map[string]any{
		"accountId": session.AccountID,
		"#ids":      b.Ref(queryID, "/ids"),
	})

	resp, err := c.jc.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out contactList
	if err := resp.DecodeResult(1, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

// fetchAll is the fallback shape for accounts that reject Contact/query:
// list the address-book containers, then fetch every contact record.
func (c *Client) fetchAll(ctx context.Context, session *jmap.Session) ([]Contact, error) {
	b := jmap.NewBatch(jmap.CapCore, jmap.CapContacts)
	b.Call("AddressBook/get", map[string]any{
		"accountId": session.AccountID,
		"ids":       nil,
	})
	b.Call("Contact/get", map[string]any{
		"accountId": session.AccountID,
		"ids":       nil,
	})

	resp, err := c.jc.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out contactList
	if err := resp.DecodeResult(1, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

func clamp(list []Contact, limit int) []Contact {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

// List returns contacts from the address book. On a transport or protocol
// failure of the query chain it falls back to fetchAll exactly once; if the
// fallback also fails, that error is the one surfaced.
func (c *Client) List(ctx context.Context, limit int) ([]Contact, error) {
	session, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := c.queryThenFetch(ctx, session, nil, limit)
	if err == nil {
		return list, nil
	}
	fallback, fallbackErr := c.fetchAll(ctx, session)
	if fallbackErr != nil {
		return nil, fallbackErr
	}
	return clamp(fallback, limit), nil
}

// Search runs a free-text contact search. The fallback path fetches every
// contact and filters locally, since the alternate shape has no server-side
// text filter.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]Contact, error) {
	session, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := c.queryThenFetch(ctx, session, map[string]any{"text": text}, limit)
	if err == nil {
		return list, nil
	}
	fallback, fallbackErr := c.fetchAll(ctx, session)
	if fallbackErr != nil {
		return nil, fallbackErr
	}
	matched := make([]Contact, 0, len(fallback))
	for _, contact := range fallback {
		if contact.matches(text) {
			matched = append(matched, contact)
		}
	}
	return clamp(matched, limit), nil
}

// Get fetches one contact by id.
func (c *Client) Get(ctx context.Context, id string) (*Contact, error) {
	session, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	b := jmap.NewBatch(jmap.CapCore, jmap.CapContacts)
	b.Call("Contact/get", map[string]any{
		"accountId": session.AccountID,
		"ids":       []string{id},
	})

	resp, err := c.jc.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	var out contactList
	if err := resp.DecodeResult(0, &out); err != nil {
		return nil, err
	}
	if len(out.List) == 0 {
		return nil, &errs.NotFoundError{Kind: "contact", ID: id}
	}
	return &out.List[0], nil
}
