// Package dbcontainer sequences the container lifecycle and the
// readiness and provisioning protocol shared by every database
// platform: ensure the container process runs, wait for the engine,
// provision resources for the selected start mode, then wait for a real
// client connection.
package dbcontainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/wait"
)

var (
	// ErrEngineNotReady means the engine never accepted administrative
	// commands within the attempt budget. Provisioning was not
	// attempted.
	ErrEngineNotReady = errors.New("database engine not ready within attempt budget")

	// ErrNotReachable means the database never accepted a client
	// connection within the attempt budget.
	ErrNotReachable = errors.New("database connection not accepted within attempt budget")
)

// Platform bundles the pluggable pieces one database platform provides.
type Platform struct {
	// EngineReady reports whether the engine accepts administrative
	// commands, independent of client connectivity.
	EngineReady wait.Probe

	// Provisioner manages the primary resource pair. Nil for platforms
	// without managed database resources.
	Provisioner Provisioner

	// ExtraProvisioner manages the optional secondary pair. May be nil.
	ExtraProvisioner Provisioner

	Prober Prober

	// RunEnv is passed to `docker run` as environment entries.
	RunEnv []string

	// Cmd is appended after the image reference on `docker run`.
	Cmd []string

	// Runtime defaults to docker.NewCommands for the configured binary.
	Runtime Runtime

	Logger *slog.Logger

	// Sleep substitutes the polling clock in tests. Nil sleeps for
	// real.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Container orchestrates one named container. Start and Stop block the
// caller for the full duration of process spawning and polling; there
// is no internal parallelism and no locking against other processes
// addressing the same container name.
type Container struct {
	cfg      Config
	runtime  Runtime
	platform Platform
	log      *slog.Logger
}

// New builds a Container from its configuration and platform pieces.
func New(cfg Config, platform Platform) *Container {
	logger := platform.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("container", cfg.Name)

	runtime := platform.Runtime
	if runtime == nil {
		runtime = docker.NewCommands(cfg.Docker, nil, logger)
	}

	return &Container{
		cfg:      cfg,
		runtime:  runtime,
		platform: platform,
		log:      logger,
	}
}

// Config returns the configuration the container was built from.
func (c *Container) Config() Config {
	return c.cfg
}

// Start ensures the container process is running, waits for engine
// readiness, provisions resources for the given mode, then waits for
// client-connection readiness. It returns nil only when the database is
// reachable for the mode's credentials.
func (c *Container) Start(ctx context.Context, mode StartMode) error {
	c.log.Info("start", "mode", mode.String(), "image", c.cfg.Image)

	err := c.startIfNeeded(ctx)
	if err != nil {
		return fmt.Errorf("ensure container %s running, %w", c.cfg.Name, err)
	}

	if !c.waitForEngineReady(ctx) {
		return fmt.Errorf("container %s, %w", c.cfg.Name, ErrEngineNotReady)
	}

	switch mode {
	case StartCreate:
		err = c.createResources(ctx, true)
	case StartDropCreate:
		err = c.dropResources(ctx)
		if err == nil {
			err = c.createResources(ctx, false)
		}
	case StartContainerOnly:
		// never touches database-level resources
	}

	if err != nil {
		return fmt.Errorf("provision container %s, %w", c.cfg.Name, err)
	}

	if !c.waitForConnectivity(ctx, mode) {
		return fmt.Errorf("container %s, %w", c.cfg.Name, ErrNotReachable)
	}

	return nil
}

// StartConfigured starts with the start mode from the configuration.
func (c *Container) StartConfigured(ctx context.Context) error {
	return c.Start(ctx, ParseStartMode(c.cfg.StartMode))
}

// Stop halts the container. StopRemove additionally deletes the
// container registration regardless of whether it was running.
func (c *Container) Stop(ctx context.Context, mode StopMode) error {
	c.log.Info("stop", "mode", mode.String())

	err := c.runtime.StopIfRunning(ctx, c.cfg.Name)
	if err != nil {
		return fmt.Errorf("stop container %s, %w", c.cfg.Name, err)
	}

	if mode != StopRemove {
		return nil
	}

	err = c.runtime.Remove(ctx, c.cfg.Name)
	if err != nil {
		return fmt.Errorf("remove container %s, %w", c.cfg.Name, err)
	}

	return nil
}

// StopConfigured stops with the stop mode from the configuration.
func (c *Container) StopConfigured(ctx context.Context) error {
	return c.Stop(ctx, ParseStopMode(c.cfg.StopMode))
}

// startIfNeeded leaves a running container alone, resumes a registered
// but stopped one, and otherwise runs a fresh container.
func (c *Container) startIfNeeded(ctx context.Context) error {
	running, err := c.runtime.IsRunning(ctx, c.cfg.Name)
	if err != nil {
		return err
	}

	if running {
		c.log.Debug("container already running")

		return nil
	}

	registered, err := c.runtime.IsRegistered(ctx, c.cfg.Name)
	if err != nil {
		return err
	}

	if registered {
		return c.runtime.Start(ctx, c.cfg.Name)
	}

	return c.runtime.Run(ctx, docker.RunArgs{
		Name:         c.cfg.Name,
		Image:        c.cfg.Image,
		Port:         c.cfg.Port,
		InternalPort: c.cfg.InternalPort,
		Tmpfs:        c.cfg.Tmpfs,
		Env:          c.platform.RunEnv,
		Cmd:          c.platform.Cmd,
	})
}

func (c *Container) waitForEngineReady(ctx context.Context) bool {
	if c.platform.EngineReady == nil {
		return true
	}

	poller := wait.Poller{
		Attempts: c.cfg.maxReadyAttempts(),
		Delay:    c.cfg.readyDelay(),
		Sleep:    c.platform.Sleep,
		Logger:   c.log,
	}

	ok := poller.Wait(ctx, c.platform.EngineReady)
	if !ok {
		c.log.Warn("engine readiness wait exhausted")
	}

	return ok
}

// waitForConnectivity polls a full client connection. ContainerOnly
// probes with administrative credentials since the target user may not
// exist; the other modes probe as the target user.
func (c *Container) waitForConnectivity(ctx context.Context, mode StartMode) bool {
	if c.platform.Prober == nil {
		return true
	}

	probe := c.platform.Prober.Probe
	if mode == StartContainerOnly {
		probe = c.platform.Prober.ProbeAdmin
	}

	poller := wait.Poller{
		Attempts: c.cfg.maxReadyAttempts(),
		Delay:    c.cfg.connectDelay(),
		Sleep:    c.platform.Sleep,
		Logger:   c.log,
	}

	ok := poller.Wait(ctx, func(ctx context.Context) (bool, error) {
		err := probe(ctx)
		if err != nil {
			return false, err
		}

		return true, nil
	})
	if !ok {
		c.log.Warn("connectivity wait exhausted")
	}

	return ok
}

func (c *Container) provisioners() []Provisioner {
	var provs []Provisioner

	if c.platform.Provisioner != nil {
		provs = append(provs, c.platform.Provisioner)
	}

	if c.platform.ExtraProvisioner != nil {
		provs = append(provs, c.platform.ExtraProvisioner)
	}

	return provs
}

func (c *Container) createResources(ctx context.Context, checkExists bool) error {
	for i, prov := range c.provisioners() {
		// the secondary pair is always created only if absent
		check := checkExists || i > 0

		created, err := prov.CreateUser(ctx, check)
		if err != nil {
			return fmt.Errorf("create user, %w", err)
		}

		if created {
			c.log.Debug("created user")
		}

		created, err = prov.CreateDatabase(ctx, check)
		if err != nil {
			return fmt.Errorf("create database, %w", err)
		}

		if created {
			c.log.Debug("created database")
		}

		err = prov.CreateExtensions(ctx)
		if err != nil {
			return fmt.Errorf("create extensions, %w", err)
		}
	}

	return nil
}

// dropResources drops the primary database before the primary user: a
// database keeps an ownership reference to its user, so the reverse
// order fails. The secondary pair is never dropped; it only ever gets
// create-if-absent provisioning.
func (c *Container) dropResources(ctx context.Context) error {
	prov := c.platform.Provisioner
	if prov == nil {
		return nil
	}

	dropped, err := prov.DropDatabaseIfExists(ctx)
	if err != nil {
		return fmt.Errorf("drop database, %w", err)
	}

	if dropped {
		c.log.Debug("dropped database")
	}

	dropped, err = prov.DropUserIfExists(ctx)
	if err != nil {
		return fmt.Errorf("drop user, %w", err)
	}

	if dropped {
		c.log.Debug("dropped user")
	}

	return nil
}
