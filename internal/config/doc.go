// Package config resolves credentials from the environment.
//
// Each credential can be provided under more than one environment variable;
// the resolver walks the candidate keys in priority order and the first key
// with content decides the outcome. A value left as an unexpanded template
// placeholder (${...}) is treated as a configuration error rather than
// silently falling through to a later key, so the diagnostic points at the
// variable the operator actually tried to set.
package config
