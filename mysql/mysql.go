// Package mysql manages disposable mysql containers. Provisioning goes
// through the mysql client inside the container as root; the client
// prints nothing on success, so success is an empty result with a zero
// exit code.
package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/proc"
)

// AdminUser is the superuser of the official mysql images.
const AdminUser = "root"

type Provisioner struct {
	commands      *docker.Commands
	container     string
	adminPassword string
	spec          dbcontainer.ResourceSpec
	log           *slog.Logger
}

func NewProvisioner(
	commands *docker.Commands,
	containerName string,
	adminPassword string,
	spec dbcontainer.ResourceSpec,
	logger *slog.Logger,
) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Provisioner{
		commands:      commands,
		container:     containerName,
		adminPassword: adminPassword,
		spec:          spec,
		log:           logger,
	}
}

func (p *Provisioner) EngineReady(ctx context.Context) (bool, error) {
	res, err := p.commands.Exec(ctx, p.container,
		"mysqladmin", "ping", "-h", "localhost", "-u"+AdminUser, "-p"+p.adminPassword, "--silent",
	)
	if err != nil {
		return false, err
	}

	return res.Success(), nil
}

func (p *Provisioner) DatabaseExists(ctx context.Context) (bool, error) {
	if p.spec.Database == "" {
		return false, nil
	}

	return p.hasRow(ctx,
		"select schema_name from information_schema.schemata where schema_name = '"+p.spec.Database+"'",
		p.spec.Database,
	)
}

func (p *Provisioner) UserExists(ctx context.Context) (bool, error) {
	if p.spec.User == "" {
		return false, nil
	}

	return p.hasRow(ctx,
		"select user from mysql.user where user = '"+p.spec.User+"'",
		p.spec.User,
	)
}

func (p *Provisioner) CreateUser(ctx context.Context, checkExists bool) (bool, error) {
	if p.spec.User == "" {
		return false, nil
	}

	if checkExists {
		exists, err := p.UserExists(ctx)
		if err != nil {
			return false, fmt.Errorf("check user %s exists, %w", p.spec.User, err)
		}

		if exists {
			return false, nil
		}
	}

	p.log.Debug("create mysql user", "user", p.spec.User)

	err := p.exec(ctx, "create user '"+p.spec.User+"'@'%' identified by '"+p.spec.Password+"'")
	if err != nil {
		return false, fmt.Errorf("create user %s, %w", p.spec.User, err)
	}

	return true, nil
}

func (p *Provisioner) CreateDatabase(ctx context.Context, checkExists bool) (bool, error) {
	if p.spec.Database == "" {
		return false, nil
	}

	if checkExists {
		exists, err := p.DatabaseExists(ctx)
		if err != nil {
			return false, fmt.Errorf("check database %s exists, %w", p.spec.Database, err)
		}

		if exists {
			return false, nil
		}
	}

	p.log.Debug("create mysql database",
		"database", p.spec.Database,
		"user", p.spec.User,
	)

	err := p.exec(ctx, "create database "+p.spec.Database)
	if err != nil {
		return false, fmt.Errorf("create database %s, %w", p.spec.Database, err)
	}

	if p.spec.User != "" {
		// ownership analogue: full grants on the new schema
		err = p.exec(ctx, "grant all on "+p.spec.Database+".* to '"+p.spec.User+"'@'%'")
		if err != nil {
			return false, fmt.Errorf("grant database %s to %s, %w", p.spec.Database, p.spec.User, err)
		}
	}

	return true, nil
}

// CreateExtensions is a no-op: mysql has no extension mechanism.
func (p *Provisioner) CreateExtensions(ctx context.Context) error {
	if extensions := dbcontainer.SplitExtensions(p.spec.Extensions); len(extensions) > 0 {
		p.log.Warn("mysql does not support extensions, ignoring", "extensions", extensions)
	}

	return nil
}

func (p *Provisioner) DropDatabaseIfExists(ctx context.Context) (bool, error) {
	if p.spec.Database == "" {
		return false, nil
	}

	exists, err := p.DatabaseExists(ctx)
	if err != nil {
		return false, fmt.Errorf("check database %s exists, %w", p.spec.Database, err)
	}

	if !exists {
		return false, nil
	}

	p.log.Debug("drop mysql database", "database", p.spec.Database)

	err = p.exec(ctx, "drop database "+p.spec.Database)
	if err != nil {
		return false, fmt.Errorf("drop database %s, %w", p.spec.Database, err)
	}

	return true, nil
}

func (p *Provisioner) DropUserIfExists(ctx context.Context) (bool, error) {
	if p.spec.User == "" {
		return false, nil
	}

	exists, err := p.UserExists(ctx)
	if err != nil {
		return false, fmt.Errorf("check user %s exists, %w", p.spec.User, err)
	}

	if !exists {
		return false, nil
	}

	p.log.Debug("drop mysql user", "user", p.spec.User)

	err = p.exec(ctx, "drop user '"+p.spec.User+"'@'%'")
	if err != nil {
		return false, fmt.Errorf("drop user %s, %w", p.spec.User, err)
	}

	return true, nil
}

// hasRow runs an existence query with column headers suppressed: the
// output is exactly the matching rows, so absence is empty output and a
// present resource echoes its name. A nonzero exit is an error, never
// absence.
func (p *Provisioner) hasRow(ctx context.Context, query, name string) (bool, error) {
	res, err := p.sql(ctx, query)
	if err != nil {
		return false, err
	}

	if !res.Success() {
		return false, fmt.Errorf("mysql exit code %d, stderr: %s",
			res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	for _, line := range res.StdoutLines() {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}

	return false, nil
}

// exec runs one statement and expects silent success.
func (p *Provisioner) exec(ctx context.Context, statement string) error {
	res, err := p.sql(ctx, statement)
	if err != nil {
		return err
	}

	if !res.Success() {
		return fmt.Errorf("mysql exit code %d, stderr: %s",
			res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	if lines := res.StdoutLines(); len(lines) > 0 {
		return fmt.Errorf("expected no mysql output, got %q", lines)
	}

	return nil
}

func (p *Provisioner) sql(ctx context.Context, query string) (proc.Result, error) {
	return p.commands.Exec(ctx, p.container,
		"mysql", "-u"+AdminUser, "-p"+p.adminPassword, "-N", "-e", query,
	)
}
