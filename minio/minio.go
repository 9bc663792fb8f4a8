// Package minio runs disposable minio containers for object-storage
// tests. Like redis it is container-only: there are no managed database
// or user resources, only the root credentials passed to the server.
package minio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/dockdb/dockdb"
	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/proc"
	"github.com/dockdb/dockdb/wait"
	minioclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	DefaultImage = "minio/minio:RELEASE.2024-01-16T16-07-38Z"
	DefaultName  = "dockdb_minio"
	DefaultPort  = 9800

	DefaultRootUser     = "minioadmin"
	DefaultRootPassword = "minioadmin"

	internalPort = 9000

	imageEnv = "DOCKDB_MINIO_IMAGE"
)

// EngineReady hits the liveness endpoint from inside the container.
func EngineReady(commands *docker.Commands, containerName string) wait.Probe {
	return func(ctx context.Context) (bool, error) {
		res, err := commands.Exec(ctx, containerName,
			"curl", "-f", "-s", fmt.Sprintf("http://localhost:%d/minio/health/live", internalPort),
		)
		if err != nil {
			return false, err
		}

		return res.Success(), nil
	}
}

// Prober lists buckets with the root credentials, the smallest
// authenticated call the server accepts.
type Prober struct {
	endpoint string
	user     string
	password string
}

func NewProber(endpoint, user, password string) *Prober {
	return &Prober{
		endpoint: endpoint,
		user:     user,
		password: password,
	}
}

func (p *Prober) Probe(ctx context.Context) error {
	client, err := minioclient.New(p.endpoint, &minioclient.Options{
		Creds:  credentials.NewStaticV4(p.user, p.password, ""),
		Secure: false,
	})
	if err != nil {
		return fmt.Errorf("create minio client, %w", err)
	}

	_, err = client.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("list buckets on %s, %w", p.endpoint, err)
	}

	return nil
}

func (p *Prober) ProbeAdmin(ctx context.Context) error {
	return p.Probe(ctx)
}

func New(cfg dbcontainer.Config) *dbcontainer.Container {
	return NewContainer(cfg, nil, nil)
}

func NewContainer(cfg dbcontainer.Config, runner proc.Runner, logger *slog.Logger) *dbcontainer.Container {
	cfg = withDefaults(cfg)

	if logger == nil {
		logger = slog.Default()
	}

	commands := docker.NewCommands(cfg.Docker, runner, logger)

	return dbcontainer.New(cfg, dbcontainer.Platform{
		EngineReady: EngineReady(commands, cfg.Name),
		Prober:      NewProber(Endpoint(cfg), cfg.DBUser, cfg.DBPassword),
		RunEnv: []string{
			"MINIO_ROOT_USER=" + cfg.DBUser,
			"MINIO_ROOT_PASSWORD=" + cfg.DBPassword,
		},
		Cmd:     []string{"server", "/data"},
		Runtime: commands,
		Logger:  logger,
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

	if cfg.DBUser == "" {
		cfg.DBUser = DefaultRootUser
	}

	if cfg.DBPassword == "" {
		cfg.DBPassword = DefaultRootPassword
	}

	return cfg
}

// Endpoint returns the host-side endpoint without scheme, the form the
// minio client expects.
func Endpoint(cfg dbcontainer.Config) string {
	cfg = withDefaults(cfg)

	return fmt.Sprintf("localhost:%d", cfg.Port)
}

// RunForTesting starts the container and returns a connected client.
func RunForTesting(t *testing.T, cfg dbcontainer.Config) *minioclient.Client {
	dockdb.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg = withDefaults(cfg)

	cnt := New(cfg)

	t.Cleanup(func() {
		stopErr := cnt.StopConfigured(context.Background())
		if stopErr != nil {
			t.Logf("stop minio container, err: %s", stopErr)
		}
	})

	err := cnt.StartConfigured(ctx)
	if err != nil {
		t.Fatalf("start minio container, err: %s", err)
	}

	client, err := minioclient.New(Endpoint(cfg), &minioclient.Options{
		Creds:  credentials.NewStaticV4(cfg.DBUser, cfg.DBPassword, ""),
		Secure: false,
	})
	if err != nil {
		t.Fatalf("create minio client, err: %s", err)
	}

	return client
}
