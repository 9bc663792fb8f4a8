package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/dockdb/dockdb"
	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/migrations"
	"github.com/dockdb/dockdb/proc"

	//nolint:revive //database/sql driver for the connection helpers
	_ "github.com/go-sql-driver/mysql"
)

const (
	DefaultImage = "mysql:8.4"
	DefaultName  = "dockdb_mysql"
	DefaultPort  = 4306

	internalPort = 3306

	imageEnv = "DOCKDB_MYSQL_IMAGE"
)

func New(cfg dbcontainer.Config) *dbcontainer.Container {
	return NewContainer(cfg, nil, nil)
}

func NewContainer(cfg dbcontainer.Config, runner proc.Runner, logger *slog.Logger) *dbcontainer.Container {
	cfg = withDefaults(cfg)

	if logger == nil {
		logger = slog.Default()
	}

	commands := docker.NewCommands(cfg.Docker, runner, logger)

	provisioner := NewProvisioner(commands, cfg.Name, cfg.AdminPassword, cfg.Spec(), logger)

	var extra dbcontainer.Provisioner

	if extraSpec := cfg.ExtraSpec(); extraSpec.Database != "" || extraSpec.User != "" {
		extra = NewProvisioner(commands, cfg.Name, cfg.AdminPassword, extraSpec, logger)
	}

	return dbcontainer.New(cfg, dbcontainer.Platform{
		EngineReady:      provisioner.EngineReady,
		Provisioner:      provisioner,
		ExtraProvisioner: extra,
		Prober:           NewProber("", cfg.Port, cfg.AdminPassword, cfg.Spec()),
		RunEnv:           []string{"MYSQL_ROOT_PASSWORD=" + cfg.AdminPassword},
		Runtime:          commands,
		Logger:           logger,
	})
}

func withDefaults(cfg dbcontainer.Config) dbcontainer.Config {
	if img := os.Getenv(imageEnv); img != "" {
		cfg.Image = img
	}

	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}

	if cfg.Name == "" {
		cfg.Name = DefaultName
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	cfg.InternalPort = internalPort

	if cfg.DBName == "" {
		cfg.DBName = "test"
	}

	if cfg.DBUser == "" {
		cfg.DBUser = "admin"
	}

	if cfg.DBPassword == "" {
		cfg.DBPassword = cfg.DBUser
	}

	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin"
	}

	return cfg
}

// ConnectionString returns the target-user go-sql-driver DSN.
func ConnectionString(cfg dbcontainer.Config) string {
	cfg = withDefaults(cfg)

	return fmt.Sprintf("%s:%s@tcp(localhost:%d)/%s",
		cfg.DBUser, cfg.DBPassword, cfg.Port, cfg.DBName)
}

func RunForTesting(
	t *testing.T,
	cfg dbcontainer.Config,
	migrations migrations.Migrations,
	initialQueries ...string,
) *sql.DB {
	dockdb.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, term, err := Run(ctx, cfg, migrations, initialQueries...)
	t.Cleanup(term)

	if err != nil {
		t.Fatalf("start mysql container, err: %s", err)
	}

	return db
}

func Run(
	ctx context.Context,
	cfg dbcontainer.Config,
	migrations migrations.Migrations,
	initialQueries ...string,
) (db *sql.DB, term func(), err error) {
	cfg = withDefaults(cfg)

	cnt := New(cfg)

	term = func() {
		stopErr := cnt.StopConfigured(context.Background())
		if stopErr != nil {
			slog.Default().Error("stop mysql container", "error", stopErr)
		}
	}

	err = cnt.StartConfigured(ctx)
	if err != nil {
		return nil, term, err
	}

	db, err = sql.Open("mysql", ConnectionString(cfg))
	if err != nil {
		return nil, term, fmt.Errorf("open connection, %w", err)
	}

	term = func() {
		_ = db.Close()

		stopErr := cnt.StopConfigured(context.Background())
		if stopErr != nil {
			slog.Default().Error("stop mysql container", "error", stopErr)
		}
	}

	if migrations != nil {
		err = migrations.Up(ctx, db)
		if err != nil {
			return db, term, fmt.Errorf("up migrations, %w", err)
		}
	}

	for _, initialQuery := range initialQueries {
		_, execErr := db.ExecContext(ctx, initialQuery)
		if execErr != nil {
			return db, term, fmt.Errorf("exec %s query, %w", initialQuery, execErr)
		}
	}

	return db, term, nil
}
