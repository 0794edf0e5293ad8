package domain

type FollowupKind string

const (
	// FollowupNudge and FollowupPersuade are the inactivity kinds: any new
	// user message cancels them.
	FollowupNudge          FollowupKind = "nudge"
	FollowupPersuade       FollowupKind = "persuade"
	FollowupContactRequest FollowupKind = "contact_request"
)

// InactivityKinds are re-armed together once the turn threshold is reached.
var InactivityKinds = []FollowupKind{FollowupNudge, FollowupPersuade}
