package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dockdb/dockdb/dbcontainer"
)

// Prober opens and immediately closes one mysql connection.
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

func (p *Prober) Probe(ctx context.Context) error {
	if p.spec.User == "" {
		return p.ProbeAdmin(ctx)
	}

	return p.connect(ctx, p.spec.User, p.spec.Password, p.spec.Database)
}

func (p *Prober) ProbeAdmin(ctx context.Context) error {
	return p.connect(ctx, AdminUser, p.adminPassword, "")
}

func (p *Prober) connect(ctx context.Context, user, password, database string) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", user, password, p.host, p.port, database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open connection as %s, %w", user, err)
	}

	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("connect as %s, %w", user, err)
	}

	return conn.Close()
}
