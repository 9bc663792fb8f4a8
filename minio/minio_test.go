package minio_test

import (
	"context"
	"testing"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/dockdb/dockdb/docker"
	"github.com/dockdb/dockdb/internal/testkit"
	"github.com/dockdb/dockdb/minio"
	"github.com/dockdb/dockdb/proc"
	"github.com/stretchr/testify/require"
)

func Test_EngineReady_ArgumentAssembly(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{}

	probe := minio.EngineReady(docker.NewCommands("docker", runner, nil), "ut_minio")

	ready, err := probe(context.Background())
	require.NoError(t, err)
	require.True(t, ready)

	require.Equal(t,
		[]string{"docker exec -i ut_minio curl -f -s http://localhost:9000/minio/health/live"},
		runner.Calls(),
	)
}

func Test_EngineReady_NotReadyOnFailedHealthCheck(t *testing.T) {
	t.Parallel()

	runner := &testkit.Runner{
		Respond: func(string, ...string) (proc.Result, error) {
			return testkit.Exit(22, "The requested URL returned error: 503"), nil
		},
	}

	probe := minio.EngineReady(docker.NewCommands("docker", runner, nil), "ut_minio")

	ready, err := probe(context.Background())
	require.NoError(t, err)
	require.False(t, ready)
}

func Test_Endpoint(t *testing.T) {
	t.Parallel()

	require.Equal(t, "localhost:9800", minio.Endpoint(dbcontainer.Config{}))
	require.Equal(t, "localhost:9901", minio.Endpoint(dbcontainer.Config{Port: 9901}))
}
