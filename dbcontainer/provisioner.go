package dbcontainer

import (
	"context"

	"github.com/dockdb/dockdb/docker"
)

// Provisioner manages the database-level resources of one ResourceSpec:
// a database, its owning user and optional extensions. Implementations
// are platform-specific and detect success from the output of
// adapter-issued commands.
//
// Create and drop calls return whether they actually changed anything,
// so a repeated call is a distinguishable no-op rather than an error.
type Provisioner interface {
	// DatabaseExists and UserExists are existence probes. Output that
	// does not match the expected shape is an error, never "absent":
	// treating garbage as absence risks data loss on a later drop.
	DatabaseExists(ctx context.Context) (bool, error)
	UserExists(ctx context.Context) (bool, error)

	CreateUser(ctx context.Context, checkExists bool) (created bool, err error)
	CreateDatabase(ctx context.Context, checkExists bool) (created bool, err error)

	// CreateExtensions applies every configured extension in order. A
	// failing extension is logged and does not block the others.
	CreateExtensions(ctx context.Context) error

	DropDatabaseIfExists(ctx context.Context) (dropped bool, err error)
	DropUserIfExists(ctx context.Context) (dropped bool, err error)
}

// Prober opens and immediately closes one client connection. No data is
// read; retries belong to the caller.
type Prober interface {
	// ProbeAdmin connects with administrative credentials.
	ProbeAdmin(ctx context.Context) error

	// Probe connects as the target user to the target database.
	Probe(ctx context.Context) error
}

// Runtime is the container runtime surface the orchestrator needs.
// *docker.Commands satisfies it.
type Runtime interface {
	IsRunning(ctx context.Context, name string) (bool, error)
	IsRegistered(ctx context.Context, name string) (bool, error)
	Run(ctx context.Context, a docker.RunArgs) error
	Start(ctx context.Context, name string) error
	StopIfRunning(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
}

var _ Runtime = (*docker.Commands)(nil)
