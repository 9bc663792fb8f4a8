// Package docker translates container lifecycle intents into command
// line invocations of a docker-compatible runtime. It holds no state and
// no retry logic; polling lives with the caller.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dockdb/dockdb/proc"
)

// RunArgs describes the `docker run` invocation for a new container.
type RunArgs struct {
	Name         string
	Image        string
	Port         int
	InternalPort int

	// Tmpfs mounts the given directive on non-persistent storage, e.g.
	// "/var/lib/postgresql/data:rw".
	Tmpfs string

	// Env entries are passed verbatim as KEY=value.
	Env []string

	// Cmd is appended after the image reference.
	Cmd []string
}

// Commands drives one container runtime binary (docker or podman).
type Commands struct {
	binary string
	runner proc.Runner
	log    *slog.Logger
}

// NewCommands returns a Commands for the given binary. An empty binary
// means "docker", a nil runner means running on the local host.
func NewCommands(binary string, runner proc.Runner, logger *slog.Logger) *Commands {
	if binary == "" {
		binary = "docker"
	}

	if runner == nil {
		runner = proc.Local{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Commands{
		binary: binary,
		runner: runner,
		log:    logger,
	}
}

// IsRunning reports whether a container with the given name is currently
// running.
func (c *Commands) IsRunning(ctx context.Context, name string) (bool, error) {
	return c.hasNamed(ctx, name, "ps")
}

// IsRegistered reports whether the runtime knows the container name at
// all, running or stopped.
func (c *Commands) IsRegistered(ctx context.Context, name string) (bool, error) {
	return c.hasNamed(ctx, name, "ps", "-a")
}

func (c *Commands) hasNamed(ctx context.Context, name string, ps ...string) (bool, error) {
	args := append(ps, "--filter", "name="+name, "--format", "{{.Names}}")

	res, err := c.run(ctx, args...)
	if err != nil {
		return false, err
	}

	// The name filter matches substrings, so compare whole lines.
	for _, line := range res.StdoutLines() {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}

	return false, nil
}

// Run creates and starts a fresh detached container.
func (c *Commands) Run(ctx context.Context, a RunArgs) error {
	args := []string{"run", "-d", "--name", a.Name}

	if a.Port != 0 {
		args = append(args, "-p", fmt.Sprintf("%d:%d", a.Port, a.InternalPort))
	}

	if a.Tmpfs != "" {
		args = append(args, "--tmpfs", a.Tmpfs)
	}

	for _, env := range a.Env {
		args = append(args, "-e", env)
	}

	args = append(args, a.Image)
	args = append(args, a.Cmd...)

	c.log.Debug("run container", "name", a.Name, "image", a.Image)

	_, err := c.run(ctx, args...)

	return err
}

// Start resumes a registered but stopped container.
func (c *Commands) Start(ctx context.Context, name string) error {
	c.log.Debug("start container", "name", name)

	_, err := c.run(ctx, "start", name)

	return err
}

// Stop halts a running container.
func (c *Commands) Stop(ctx context.Context, name string) error {
	c.log.Debug("stop container", "name", name)

	_, err := c.run(ctx, "stop", name)

	return err
}

// StopIfRunning halts the container when it is running and is a no-op
// otherwise.
func (c *Commands) StopIfRunning(ctx context.Context, name string) error {
	running, err := c.IsRunning(ctx, name)
	if err != nil {
		return err
	}

	if !running {
		return nil
	}

	return c.Stop(ctx, name)
}

// Remove deletes the container registration, destroying any data not on
// a separate volume.
func (c *Commands) Remove(ctx context.Context, name string) error {
	c.log.Debug("remove container", "name", name)

	_, err := c.run(ctx, "rm", name)

	return err
}

// Exec runs a command inside the container and returns the raw result.
// A nonzero exit status is reported through the result, not an error.
func (c *Commands) Exec(ctx context.Context, name string, cmd ...string) (proc.Result, error) {
	args := append([]string{"exec", "-i", name}, cmd...)

	return c.runner.Run(ctx, c.binary, args...)
}

func (c *Commands) run(ctx context.Context, args ...string) (proc.Result, error) {
	res, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		return proc.Result{}, fmt.Errorf("run %s %s, %w", c.binary, strings.Join(args, " "), err)
	}

	if !res.Success() {
		return res, fmt.Errorf("%s %s, exit code %d, stderr: %s",
			c.binary, strings.Join(args, " "), res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	return res, nil
}
