package validator

import (
	"errors"
	"net/url"
	"strings"
)

// IsValidEndpointURL requires a well-formed absolute http(s) URL. Endpoints
// are validated once at registration; deliveries trust the stored value.
func IsValidEndpointURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must use http or https")
	}
	if u.Host == "" {
		return errors.New("URL must be absolute")
	}
	return nil
}

func IsValidEmail(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return errors.New("invalid email format")
	}
	if !strings.Contains(parts[1], ".") {
		return errors.New("invalid email domain")
	}
	return nil
}
