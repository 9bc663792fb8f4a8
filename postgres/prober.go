package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/jackc/pgx/v5"
)

// Prober opens and immediately closes one postgres connection. No query
// is executed; retries belong to the readiness poller.
type Prober struct {
	host          string
	port          int
	adminPassword string
	spec          dbcontainer.ResourceSpec
}

func NewProber(host string, port int, adminPassword string, spec dbcontainer.ResourceSpec) *Prober {
	if host == "" {
		host = "localhost"
	}

	return &Prober{
		host:          host,
		port:          port,
		adminPassword: adminPassword,
		spec:          spec,
	}
}

// Probe connects as the target user to the target database. With no
// managed user it falls back to the administrative credentials.
func (p *Prober) Probe(ctx context.Context) error {
	if p.spec.User == "" {
		return p.ProbeAdmin(ctx)
	}

	database := p.spec.Database
	if database == "" {
		database = adminDatabase
	}

	return p.connect(ctx, p.spec.User, p.spec.Password, database)
}

// ProbeAdmin connects as the administrative role.
func (p *Prober) ProbeAdmin(ctx context.Context) error {
	return p.connect(ctx, AdminUser, p.adminPassword, adminDatabase)
}

func (p *Prober) connect(ctx context.Context, user, password, database string) error {
	conn, err := pgx.Connect(ctx, connString(p.host, p.port, user, password, database))
	if err != nil {
		return fmt.Errorf("connect to %s as %s, %w", database, user, err)
	}

	return conn.Close(ctx)
}

func connString(host string, port int, user, password, database string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     host + ":" + strconv.Itoa(port),
		Path:     "/" + database,
		RawQuery: "sslmode=disable",
	}

	return u.String()
}
