// Package jmap implements the batched request engine for the JMAP mail
// backend and the higher-level mail operations built on it.
//
// A Batch is an ordered sequence of method calls executed server-side in
// order. Later calls may reference an earlier call's result through a
// back-reference that the server resolves, so list-then-fetch chains cost a
// single round trip. Responses are correlated positionally, never by call
// id; BatchResponse hides the index arithmetic behind a typed accessor.
package jmap
