// Package redis runs disposable redis containers. Redis has no managed
// user or database resources, so every start mode reduces to "container
// running and answering pings".
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/dockdb/dockdb"
	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/proc"
	"github.com/dockdb/dockdb/wait"
	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultImage = "redis:7-alpine"
	DefaultName  = "dockdb_redis"
	DefaultPort  = 7379

	internalPort = 6379

	imageEnv = "DOCKDB_REDIS_IMAGE"
)

// EngineReady probes the server with redis-cli inside the container.
func EngineReady(commands *docker.Commands, containerName string) wait.Probe {
	return func(ctx context.Context) (bool, error) {
		res, err := commands.Exec(ctx, containerName, "redis-cli", "ping")
		if err != nil {
			return false, err
		}

		if !res.Success() {
			return false, nil
		}

		for _, line := range res.StdoutLines() {
			if strings.TrimSpace(line) == "PONG" {
				return true, nil
			}
		}

		return false, nil
	}
}

// Prober opens a client connection and pings once.
type Prober struct {
	addr     string
	password string
}

func NewProber(addr, password string) *Prober {
	return &Prober{
		addr:     addr,
		password: password,
	}
}

func (p *Prober) Probe(ctx context.Context) error {
	client := goredis.NewClient(&goredis.Options{
		Addr:     p.addr,
		Password: p.password,
	})

	defer client.Close()

	err := client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("ping %s, %w", p.addr, err)
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

	var cmd []string

	if cfg.AdminPassword != "" {
		cmd = []string{"redis-server", "--requirepass", cfg.AdminPassword}
	}

	return dbcontainer.New(cfg, dbcontainer.Platform{
		EngineReady: EngineReady(commands, cfg.Name),
		Prober:      NewProber(Addr(cfg), cfg.AdminPassword),
		Cmd:         cmd,
		Runtime:     commands,
		Logger:      logger,
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

	return cfg
}

// Addr returns the host-side address of the container.
func Addr(cfg dbcontainer.Config) string {
	cfg = withDefaults(cfg)

	return fmt.Sprintf("localhost:%d", cfg.Port)
}

// RunForTesting starts the container and returns a connected client.
func RunForTesting(t *testing.T, cfg dbcontainer.Config) *goredis.Client {
	dockdb.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg = withDefaults(cfg)

	cnt := New(cfg)

	t.Cleanup(func() {
		stopErr := cnt.StopConfigured(context.Background())
		if stopErr != nil {
			t.Logf("stop redis container, err: %s", stopErr)
		}
	})

	err := cnt.StartConfigured(ctx)
	if err != nil {
		t.Fatalf("start redis container, err: %s", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     Addr(cfg),
		Password: cfg.AdminPassword,
	})

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
