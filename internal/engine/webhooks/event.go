package webhooks

// Event is a tagged domain occurrence that may trigger deliveries. The set
// is closed; adding a kind means adding a constant here and nothing else.
type Event string

const (
	EventUserInvited           Event = "user_invited"
	EventUserRemoved           Event = "user_removed"
	EventRoleChanged           Event = "role_changed"
	EventTeamCreated           Event = "team_created"
	EventTeamUpdated           Event = "team_updated"
	EventTeamDeleted           Event = "team_deleted"
	EventMemberAddedToTeam     Event = "member_added_to_team"
	EventMemberRemovedFromTeam Event = "member_removed_from_team"
	EventOrganizationCreated   Event = "organization_created"

	// EventPing is sent by the admin test action directly to one endpoint.
	// It is not subscribable.
	EventPing Event = "ping"
)

// Wildcard subscribes an endpoint to every event.
const Wildcard = "*"

var knownEvents = map[Event]bool{
	EventUserInvited:           true,
	EventUserRemoved:           true,
	EventRoleChanged:           true,
	EventTeamCreated:           true,
	EventTeamUpdated:           true,
	EventTeamDeleted:           true,
	EventMemberAddedToTeam:     true,
	EventMemberRemovedFromTeam: true,
	EventOrganizationCreated:   true,
}

// IsSubscribable reports whether name is a valid subscription entry: a
// member of the closed event set or the wildcard.
func IsSubscribable(name string) bool {
	return name == Wildcard || knownEvents[Event(name)]
}
