package config

import (
	"fmt"
	"net/url"
	"strings"

	"ems/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Value: value, Message: "is required"}
	}
	return nil
}

// ValidateHTTPURL checks that value is an absolute http or https URL.
func ValidateHTTPURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{Field: field, Value: value, Message: "must be an absolute http(s) URL"}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Validate checks the whole configuration and reports every problem at once.
func (c Config) Validate() error {
	var errs ValidationErrors
	collect := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	collect(ValidateHTTPURL("keycloak.url", c.Keycloak.URL))
	collect(ValidateRequired("keycloak.realm", c.Keycloak.Realm))
	collect(ValidateRequired("keycloak.clientId", c.Keycloak.ClientID))
	if c.Keycloak.Issuer != "" {
		collect(ValidateHTTPURL("keycloak.issuer", c.Keycloak.Issuer))
	}

	collect(ValidateHTTPURL("app.origin", c.App.Origin))
	if u, err := url.Parse(c.App.Origin); err == nil && u.Scheme == "https" {
		errs.Add("app.origin", "must use http: the callback listener serves plain HTTP on the loopback interface", c.App.Origin)
	}

	collect(ValidateHTTPURL("gateway.url", c.Gateway.URL))
	if c.Gateway.Timeout < 0 {
		errs.Add("gateway.timeout", "must not be negative", c.Gateway.Timeout)
	}

	collect(ValidateOneOf("session.storage", c.Session.Storage, []string{StorageFile, StorageKeyring}))
	if c.Session.Storage == StorageKeyring {
		collect(ValidateRequired("session.keyringService", c.Session.KeyringService))
	}
	if c.Session.PollInterval < 0 {
		errs.Add("session.pollInterval", "must not be negative", c.Session.PollInterval)
	}

	if c.Login.Timeout < 0 {
		errs.Add("login.timeout", "must not be negative", c.Login.Timeout)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs.Add("log.level", err.Error(), c.Log.Level)
	}
	collect(ValidateOneOf("log.format", c.Log.Format, []string{string(logging.FormatText), string(logging.FormatJSON)}))

	if errs.HasErrors() {
		return errs
	}
	return nil
}
