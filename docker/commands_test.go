package docker_test

import (
	"context"
	"testing"

	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/internal/testkit"
	"github.com/dockdb/dockdb/proc"
	"github.com/stretchr/testify/require"
)

func Test_Commands_IsRunning_ExactNameMatch(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			// the name filter matches substrings
			return testkit.Lines("dockdb_postgres_old", "dockdb_postgres"), nil
		},
	}

	commands := docker.NewCommands("docker", runner, nil)

	running, err := commands.IsRunning(context.Background(), "dockdb_postgres")
	require.NoError(t, err)
	require.True(t, running)

	require.Equal(t,
		[]string{"docker ps --filter name=dockdb_postgres --format {{.Names}}"},
		runner.Calls(),
	)

	runner.Reset()

	running, err = commands.IsRunning(context.Background(), "dockdb_post")
	require.NoError(t, err)
	require.False(t, running)
}

func Test_Commands_IsRegistered(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{}

	commands := docker.NewCommands("podman", runner, nil)

	registered, err := commands.IsRegistered(context.Background(), "dockdb_mysql")
	require.NoError(t, err)
	require.False(t, registered)

	require.Equal(t,
		[]string{"podman ps -a --filter name=dockdb_mysql --format {{.Names}}"},
		runner.Calls(),
	)
}

func Test_Commands_Run_ArgumentAssembly(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{}

	commands := docker.NewCommands("", runner, nil)

	err := commands.Run(context.Background(), docker.RunArgs{
		Name:         "dockdb_postgres",
		Image:        "postgres:16-alpine",
		Port:         6432,
		InternalPort: 5432,
		Tmpfs:        "/var/lib/postgresql/data:rw",
		Env:          []string{"POSTGRES_PASSWORD=admin"},
	})
	require.NoError(t, err)

	require.Equal(t,
		[]string{
			"docker run -d --name dockdb_postgres -p 6432:5432" +
				" --tmpfs /var/lib/postgresql/data:rw" +
				" -e POSTGRES_PASSWORD=admin postgres:16-alpine",
		},
		runner.Calls(),
	)
}

func Test_Commands_Run_WithCommand(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{}

	commands := docker.NewCommands("", runner, nil)

	err := commands.Run(context.Background(), docker.RunArgs{
		Name:         "dockdb_minio",
		Image:        "minio/minio:latest",
		Port:         9800,
		InternalPort: 9000,
		Cmd:          []string{"server", "/data"},
	})
	require.NoError(t, err)

	require.Equal(t,
		[]string{"docker run -d --name dockdb_minio -p 9800:9000 minio/minio:latest server /data"},
		runner.Calls(),
	)
}

func Test_Commands_StopIfRunning(t *testing.T) {
	t.Parallel()

	t.Run("running", func(t *testing.T) {
		t.Parallel()

		runner := &testkit.Runner{
			Respond: func(_ string, args ...string) (proc.Result, error) {
				if args[0] == "ps" {
					return testkit.Lines("dockdb_redis"), nil
				}

				return proc.Result{}, nil
			},
		}

		commands := docker.NewCommands("", runner, nil)

		err := commands.StopIfRunning(context.Background(), "dockdb_redis")
		require.NoError(t, err)

		calls := runner.Calls()
		require.Len(t, calls, 2)
		require.Equal(t, "docker stop dockdb_redis", calls[1])
	})

	t.Run("stopped", func(t *testing.T) {
		t.Parallel()

		runner := &testkit.Runner{}

		commands := docker.NewCommands("", runner, nil)

		err := commands.StopIfRunning(context.Background(), "dockdb_redis")
		require.NoError(t, err)

		require.Len(t, runner.Calls(), 1)
	})
}

func Test_Commands_NonZeroExit(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			return testkit.Exit(1, "No such container: dockdb_postgres"), nil
		},
	}

	commands := docker.NewCommands("", runner, nil)

	err := commands.Remove(context.Background(), "dockdb_postgres")
	require.Error(t, err)
	require.Contains(t, err.Error(), "No such container")
}

func Test_Commands_Exec_PassesThroughExitCode(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			return testkit.Exit(2, "not ready"), nil
		},
	}

	commands := docker.NewCommands("", runner, nil)

	res, err := commands.Exec(context.Background(), "dockdb_postgres", "pg_isready", "-h", "localhost")
	require.NoError(t, err)
	require.False(t, res.Success())

	require.Equal(t,
		[]string{"docker exec -i dockdb_postgres pg_isready -h localhost"},
		runner.Calls(),
	)
}
