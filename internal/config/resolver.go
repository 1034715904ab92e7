package config

import (
	"errors"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

// Candidate key lists per credential, highest priority first.
var (
	MailTokenKeys        = []string{"FASTMAIL_API_TOKEN", "JMAP_API_TOKEN"}
	BaseURLKeys          = []string{"FASTMAIL_BASE_URL", "JMAP_BASE_URL"}
	CalendarUserKeys     = []string{"FASTMAIL_USERNAME", "CALDAV_USERNAME"}
	CalendarPasswordKeys = []string{"FASTMAIL_APP_PASSWORD", "CALDAV_APP_PASSWORD"}
)

// placeholderPattern matches values left as unexpanded template tokens,
// e.g. "${FASTMAIL_API_TOKEN}".
var placeholderPattern = regexp.MustCompile(`^\$\{.*\}$`)

// Resolver looks up credentials from the environment.
type Resolver struct {
	v *viper.Viper
}

// NewResolver returns a resolver backed by the process environment.
func NewResolver() *Resolver {
	v := viper.New()
	v.AutomaticEnv()
	return &Resolver{v: v}
}

// Resolve walks keys in priority order and returns the first non-empty
// value. If that value is an unexpanded placeholder, resolution stops with a
// ConfigError naming the offending key; later keys are not consulted even if
// one of them holds a real value. If no key has content the ConfigError
// lists every candidate.
func (r *Resolver) Resolve(keys ...string) (string, error) {
	for _, key := range keys {
		val := strings.TrimSpace(r.v.GetString(key))
		if val == "" {
			continue
		}
		if placeholderPattern.MatchString(val) {
			return "", &errs.ConfigError{Keys: []string{key}, Placeholder: true}
		}
		return val, nil
	}
	return "", &errs.ConfigError{Keys: keys}
}

// ResolveOptional behaves like Resolve but a never-set credential is not an
// error; a placeholder still is.
func (r *Resolver) ResolveOptional(keys ...string) (string, error) {
	val, err := r.Resolve(keys...)
	if err != nil {
		var ce *errs.ConfigError
		if errors.As(err, &ce) && !ce.Placeholder {
			return "", nil
		}
		return "", err
	}
	return val, nil
}
