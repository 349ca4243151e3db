package webhooks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"teamsync/internal/platform/models"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		events   []string
		event    Event
		expected bool
	}{
		{
			name:     "exact match",
			events:   []string{"team_created", "team_deleted"},
			event:    EventTeamCreated,
			expected: true,
		},
		{
			name:     "no match",
			events:   []string{"team_created"},
			event:    EventUserInvited,
			expected: false,
		},
		{
			name:     "wildcard matches anything",
			events:   []string{"*"},
			event:    EventRoleChanged,
			expected: true,
		},
		{
			name:     "wildcard alongside exact entries",
			events:   []string{"team_created", "*"},
			event:    EventUserRemoved,
			expected: true,
		},
		{
			name:     "empty subscription list",
			events:   []string{},
			event:    EventTeamCreated,
			expected: false,
		},
		{
			name:     "nil subscription list",
			events:   nil,
			event:    EventTeamCreated,
			expected: false,
		},
		{
			name:     "unknown entry does not match",
			events:   []string{"something_else"},
			event:    EventTeamCreated,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := &models.WebhookEndpoint{Events: tt.events}
			assert.Equal(t, tt.expected, Matches(endpoint, tt.event))
		})
	}
}

func TestIsSubscribable(t *testing.T) {
	assert.True(t, IsSubscribable("team_created"))
	assert.True(t, IsSubscribable("user_invited"))
	assert.True(t, IsSubscribable("*"))

	// ping is reserved for the endpoint test action
	assert.False(t, IsSubscribable("ping"))
	assert.False(t, IsSubscribable(""))
	assert.False(t, IsSubscribable("Team_Created"))
	assert.False(t, IsSubscribable("team.created"))
}
