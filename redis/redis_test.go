package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/internal/testkit"
	"github.com/dockdb/dockdb/proc"
	"github.com/dockdb/dockdb/redis"
	"github.com/stretchr/testify/require"
)

func Test_EngineReady_ArgumentAssembly(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			return testkit.Lines("PONG"), nil
		},
	}

	probe := redis.EngineReady(docker.NewCommands("docker", runner, nil), "ut_redis")

	ready, err := probe(context.Background())
	require.NoError(t, err)
	require.True(t, ready)

	require.Equal(t,
		[]string{"docker exec -i ut_redis redis-cli ping"},
		runner.Calls(),
	)
}

func Test_EngineReady_NotReadyOnUnexpectedOutput(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			return testkit.Lines("LOADING Redis is loading the dataset in memory"), nil
		},
	}

	probe := redis.EngineReady(docker.NewCommands("docker", runner, nil), "ut_redis")

	ready, err := probe(context.Background())
	require.NoError(t, err)
	require.False(t, ready)
}

func Test_EngineReady_NotReadyOnNonZeroExit(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			return testkit.Exit(1, "could not connect"), nil
		},
	}

	probe := redis.EngineReady(docker.NewCommands("docker", runner, nil), "ut_redis")

	ready, err := probe(context.Background())
	require.NoError(t, err)
	require.False(t, ready)
}

func Test_EngineReady_RunnerError(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			return proc.Result{}, errors.New("docker binary missing")
		},
	}

	probe := redis.EngineReady(docker.NewCommands("docker", runner, nil), "ut_redis")

	_, err := probe(context.Background())
	require.Error(t, err)
}

func Test_Addr(t *testing.T) {
	t.Parallel()

	require.Equal(t, "localhost:7379", redis.Addr(dbcontainer.Config{}))
	require.Equal(t, "localhost:9500", redis.Addr(dbcontainer.Config{Port: 9500}))
}
