// Package contacts reads the account's address book through the JMAP batch
// engine. Contacts are an optional capability, so every operation checks the
// session for it before issuing any call. Some accounts answer contact
// queries only through their address-book containers; list and search fall
// back to that shape exactly once before giving up.
package contacts
