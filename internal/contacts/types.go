package contacts

import "strings"

// ContactEmail is one labeled address on a contact record.
type ContactEmail struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Contact is a single address-book entry.
type Contact struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Company   string         `json:"company"`
	Emails    []ContactEmail `json:"emails"`
}

// DisplayName returns the best human-readable name for the contact, falling
// back to the company and then the first email address.
func (c Contact) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	if c.Company != "" {
		return c.Company
	}
	if len(c.Emails) > 0 {
		return c.Emails[0].Value
	}
	return c.ID
}

// matches reports whether the contact matches a case-insensitive free-text
// search over names, company and email addresses.
func (c Contact) matches(text string) bool {
	needle := strings.ToLower(text)
	for _, field := range []string{c.FirstName, c.LastName, c.Company} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	for _, email := range c.Emails {
		if strings.Contains(strings.ToLower(email.Value), needle) {
			return true
		}
	}
	return false
}
