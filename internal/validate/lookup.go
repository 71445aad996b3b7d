package validate

import (
	"context"
	"errors"
)

// ErrNotFound marks a confirmed negative result from a directory lookup, as
// opposed to a transport or authentication failure. Implementations wrap it
// when the remote directory positively reports an entity as absent.
var ErrNotFound = errors.New("not found")

// DirectoryLookup supplies the remote directory queries the online rules
// need. Implementations must keep "the relationship is false" distinct from
// "the relationship could not be checked": a negative answer is a value, a
// transport failure is an error.
type DirectoryLookup interface {
	// UserExists reports whether the handle names an existing GitHub user.
	UserExists(ctx context.Context, handle string) (bool, error)

	// OrgMembers lists the member handles of an organization. A missing
	// organization is reported with an error wrapping ErrNotFound.
	OrgMembers(ctx context.Context, org string) ([]string, error)

	// TeamExists reports whether the team slug exists within the organization.
	TeamExists(ctx context.Context, org, team string) (bool, error)
}
