// Package postgres manages disposable postgres containers. Resource
// provisioning goes through psql inside the container using the
// administrative role; readiness and connectivity are checked with
// pg_isready and real client connections.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/proc"
)

const (
	// AdminUser is the superuser role of the official postgres images.
	AdminUser = "postgres"

	adminDatabase = "postgres"
)

// MalformedOutputError reports psql output that does not match the
// expected existence-query shape. It is never treated as "resource does
// not exist": doing so could drop live data on the next drop-create.
type MalformedOutputError struct {
	Lines []string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("unexpected psql output shape: %q", e.Lines)
}

// Provisioner manages one user/database pair inside a postgres
// container.
type Provisioner struct {
	commands     *docker.Commands
	container    string
	internalPort int
	spec         dbcontainer.ResourceSpec
	log          *slog.Logger
}

func NewProvisioner(
	commands *docker.Commands,
	containerName string,
	internalPort int,
	spec dbcontainer.ResourceSpec,
	logger *slog.Logger,
) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Provisioner{
		commands:     commands,
		container:    containerName,
		internalPort: internalPort,
		spec:         spec,
		log:          logger,
	}
}

// EngineReady runs pg_isready inside the container, so readiness does
// not depend on host-side TCP connectivity or local postgres tooling.
func (p *Provisioner) EngineReady(ctx context.Context) (bool, error) {
	res, err := p.commands.Exec(ctx, p.container,
		"pg_isready", "-h", "localhost", "-p", strconv.Itoa(p.internalPort),
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

	return p.hasRow(ctx, "select 1 from pg_database where datname = '"+p.spec.Database+"'")
}

func (p *Provisioner) UserExists(ctx context.Context) (bool, error) {
	if p.spec.User == "" {
		return false, nil
	}

	return p.hasRow(ctx, "select rolname from pg_roles where rolname = '"+p.spec.User+"'")
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

	p.log.Debug("create postgres user", "user", p.spec.User)

	res, err := p.sql(ctx, "", "create role "+p.spec.User+" password '"+p.spec.Password+"' login")

	expectErr := expectLine(res, err, "CREATE ROLE")
	if expectErr != nil {
		return false, fmt.Errorf("create user %s, %w", p.spec.User, expectErr)
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

	p.log.Debug("create postgres database",
		"database", p.spec.Database,
		"owner", p.spec.User,
	)

	sql := "create database " + p.spec.Database
	if p.spec.User != "" {
		sql += " with owner " + p.spec.User
	}

	res, err := p.sql(ctx, "", sql)

	expectErr := expectLine(res, err, "CREATE DATABASE")
	if expectErr != nil {
		return false, fmt.Errorf("create database %s, %w", p.spec.Database, expectErr)
	}

	return true, nil
}

// CreateExtensions applies every configured extension in order. One
// failing extension is logged and does not block the rest.
func (p *Provisioner) CreateExtensions(ctx context.Context) error {
	if p.spec.Database == "" {
		return nil
	}

	for _, extension := range dbcontainer.SplitExtensions(p.spec.Extensions) {
		p.log.Debug("create postgres extension", "extension", extension)

		res, err := p.sql(ctx, p.spec.Database, "create extension if not exists "+extension)

		expectErr := expectLine(res, err, "CREATE EXTENSION")
		if expectErr != nil {
			p.log.Error("create extension",
				"extension", extension,
				"error", expectErr,
			)
		}
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

	p.log.Debug("drop postgres database", "database", p.spec.Database)

	res, err := p.sql(ctx, "", "drop database if exists "+p.spec.Database)

	expectErr := expectLine(res, err, "DROP DATABASE")
	if expectErr != nil {
		return false, fmt.Errorf("drop database %s, %w", p.spec.Database, expectErr)
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

	p.log.Debug("drop postgres user", "user", p.spec.User)

	res, err := p.sql(ctx, "", "drop role if exists "+p.spec.User)

	expectErr := expectLine(res, err, "DROP ROLE")
	if expectErr != nil {
		return false, fmt.Errorf("drop user %s, %w", p.spec.User, expectErr)
	}

	return true, nil
}

// hasRow runs an existence query and inspects the psql result table:
//
//	 datname
//	---------
//	(0 rows)
//
// Line three is "(0 rows)" exactly when the resource is absent. Any
// shorter or different shape is malformed output.
func (p *Provisioner) hasRow(ctx context.Context, query string) (bool, error) {
	res, err := p.sql(ctx, "", query)
	if err != nil {
		return false, err
	}

	if !res.Success() {
		return false, fmt.Errorf("psql exit code %d, stderr: %s",
			res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	lines := res.StdoutLines()
	if len(lines) < 3 {
		return false, &MalformedOutputError{Lines: lines}
	}

	return lines[2] != "(0 rows)", nil
}

func (p *Provisioner) sql(ctx context.Context, database, query string) (proc.Result, error) {
	args := []string{"psql", "-U", AdminUser}

	if database != "" {
		args = append(args, "-d", database)
	}

	args = append(args, "-c", query)

	return p.commands.Exec(ctx, p.container, args...)
}

func expectLine(res proc.Result, err error, token string) error {
	if err != nil {
		return err
	}

	if !res.Success() {
		return fmt.Errorf("psql exit code %d, stderr: %s",
			res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	for _, line := range res.StdoutLines() {
		if strings.Contains(line, token) {
			return nil
		}
	}

	return fmt.Errorf("expected %q in psql output %q", token, res.StdoutLines())
}
