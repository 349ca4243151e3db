package webhooks

import "teamsync/internal/platform/models"

// Matches reports whether the endpoint subscribes to the event, either by
// exact name or via the wildcard. Pure; active/inactive filtering happens
// at the registry, not here.
func Matches(endpoint *models.WebhookEndpoint, event Event) bool {
	for _, e := range endpoint.Events {
		if e == Wildcard || e == string(event) {
			return true
		}
	}
	return false
}
