package main

import (
	"fmt"
	"os"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/minio"
	"github.com/dockdb/dockdb/mysql"
	"github.com/dockdb/dockdb/postgres"
	"github.com/dockdb/dockdb/redis"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Containers []dbcontainer.Config `yaml:"containers"`
}

func loadConfig(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config %s, %w", path, err)
	}

	var cfg fileConfig

	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s, %w", path, err)
	}

	if len(cfg.Containers) == 0 {
		return fileConfig{}, fmt.Errorf("config %s declares no containers", path)
	}

	return cfg, nil
}

// build maps a platform tag to its container constructor.
func build(cfg dbcontainer.Config) (*dbcontainer.Container, error) {
	switch cfg.Platform {
	case "postgres":
		return postgres.New(cfg), nil
	case "mysql":
		return mysql.New(cfg), nil
	case "redis":
		return redis.New(cfg), nil
	case "minio":
		return minio.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown platform %q", cfg.Platform)
	}
}
