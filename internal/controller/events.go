package controller

import "github.com/sevigo/wikiconflictbot/internal/githubapp"

// EventKind discriminates the messages the actor's event loop accepts.
type EventKind int

const (
	EventInit EventKind = iota
	EventPullRequestCreated
	EventPullRequestUpdated
	EventPullRequestClosed
	EventInstallationCreated
	EventInstallationDeleted
	EventInstallationRepositoriesAdded
	EventInstallationRepositoriesRemoved
	EventReconcile
)

// Event is a single message on the actor's bounded queue. Only the fields
// relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind EventKind

	Repo    string
	Pull    githubapp.PullRequest
	Trigger bool

	InstallationID int64
	Repositories   []string

	reply chan error
}
