package dbcontainer

import (
	"strings"
	"time"
)

// StartMode selects how far Start goes beyond ensuring the container
// process is running.
type StartMode int

const (
	// StartCreate ensures user, database and extensions exist without
	// disturbing pre-existing data.
	StartCreate StartMode = iota

	// StartDropCreate drops and recreates the user and database.
	// Destructive.
	StartDropCreate

	// StartContainerOnly never touches database-level resources.
	StartContainerOnly
)

func (m StartMode) String() string {
	switch m {
	case StartDropCreate:
		return "dropCreate"
	case StartContainerOnly:
		return "container"
	default:
		return "create"
	}
}

// ParseStartMode maps "create", "dropCreate" and "container" to a
// StartMode. Unknown values fall back to StartCreate.
func ParseStartMode(s string) StartMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dropcreate":
		return StartDropCreate
	case "container":
		return StartContainerOnly
	default:
		return StartCreate
	}
}

// StopMode selects whether Stop preserves the container for reuse by
// name or deletes its registration.
type StopMode int

const (
	StopOnly StopMode = iota
	StopRemove
)

func (m StopMode) String() string {
	if m == StopRemove {
		return "remove"
	}

	return "stop"
}

// ParseStopMode maps "stop" and "remove" to a StopMode. Unknown values
// fall back to StopOnly.
func ParseStopMode(s string) StopMode {
	if strings.EqualFold(strings.TrimSpace(s), "remove") {
		return StopRemove
	}

	return StopOnly
}

// ResourceSpec names the database resources one provisioner manages. An
// empty Database or User means "do not manage this resource": every
// provisioning operation for it becomes a no-op.
type ResourceSpec struct {
	Database string
	User     string
	Password string

	// Extensions is a comma-separated list of extensions to enable in
	// Database. Blank entries are ignored.
	Extensions string
}

// Config is the immutable identity and desired state of one container.
type Config struct {
	Platform string `yaml:"platform"`

	Name         string `yaml:"name"`
	Image        string `yaml:"image"`
	Port         int    `yaml:"port"`
	InternalPort int    `yaml:"internalPort"`
	Tmpfs        string `yaml:"tmpfs"`

	DBName        string `yaml:"dbName"`
	DBUser        string `yaml:"dbUser"`
	DBPassword    string `yaml:"dbPassword"`
	AdminPassword string `yaml:"adminPassword"`
	Extensions    string `yaml:"extensions"`

	// Optional second user/database pair for multi-tenant test
	// scenarios, always provisioned with create-if-absent semantics.
	ExtraDBName     string `yaml:"extraDbName"`
	ExtraDBUser     string `yaml:"extraDbUser"`
	ExtraDBPassword string `yaml:"extraDbPassword"`

	StartMode string `yaml:"startMode"`
	StopMode  string `yaml:"stopMode"`

	// MaxReadyAttempts bounds each readiness poll. Zero means
	// DefaultMaxReadyAttempts.
	MaxReadyAttempts int `yaml:"maxReadyAttempts"`

	// Docker is the runtime binary, "docker" when empty.
	Docker string `yaml:"docker"`

	// Polling delays. Not configuration-file material; zero values take
	// the defaults below.
	ReadyDelay   time.Duration `yaml:"-"`
	ConnectDelay time.Duration `yaml:"-"`
}

const (
	DefaultMaxReadyAttempts = 120

	defaultReadyDelay   = 100 * time.Millisecond
	defaultConnectDelay = 200 * time.Millisecond
)

// Spec returns the primary resource pair.
func (c Config) Spec() ResourceSpec {
	return ResourceSpec{
		Database:   c.DBName,
		User:       c.DBUser,
		Password:   c.DBPassword,
		Extensions: c.Extensions,
	}
}

// ExtraSpec returns the secondary resource pair. Its zero value means no
// secondary pair is configured.
func (c Config) ExtraSpec() ResourceSpec {
	return ResourceSpec{
		Database: c.ExtraDBName,
		User:     c.ExtraDBUser,
		Password: c.ExtraDBPassword,
	}
}

func (c Config) maxReadyAttempts() int {
	if c.MaxReadyAttempts > 0 {
		return c.MaxReadyAttempts
	}

	return DefaultMaxReadyAttempts
}

func (c Config) readyDelay() time.Duration {
	if c.ReadyDelay > 0 {
		return c.ReadyDelay
	}

	return defaultReadyDelay
}

func (c Config) connectDelay() time.Duration {
	if c.ConnectDelay > 0 {
		return c.ConnectDelay
	}

	return defaultConnectDelay
}

// SplitExtensions parses a comma-separated extension list: entries are
// trimmed, blanks discarded, order preserved.
func SplitExtensions(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var extensions []string

	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		extensions = append(extensions, entry)
	}

	return extensions
}
