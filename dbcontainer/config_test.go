package dbcontainer_test

import (
	"testing"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/stretchr/testify/require"
)

func Test_SplitExtensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		list     string
		expected []string
	}{
		{
			name:     "blank entries discarded, order preserved",
			list:     " hstore, , pgcrypto ",
			expected: []string{"hstore", "pgcrypto"},
		},
		{
			name:     "empty list",
			list:     "",
			expected: nil,
		},
		{
			name:     "only separators",
			list:     " , ,, ",
			expected: nil,
		},
		{
			name:     "single entry",
			list:     "hstore",
			expected: []string{"hstore"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, test.expected, dbcontainer.SplitExtensions(test.list))
		})
	}
}

func Test_ParseStartMode(t *testing.T) {
	t.Parallel()

	require.Equal(t, dbcontainer.StartCreate, dbcontainer.ParseStartMode("create"))
	require.Equal(t, dbcontainer.StartDropCreate, dbcontainer.ParseStartMode(" DropCreate "))
	require.Equal(t, dbcontainer.StartContainerOnly, dbcontainer.ParseStartMode("container"))
	require.Equal(t, dbcontainer.StartCreate, dbcontainer.ParseStartMode(""))
	require.Equal(t, dbcontainer.StartCreate, dbcontainer.ParseStartMode("bogus"))
}

func Test_ParseStopMode(t *testing.T) {
	t.Parallel()

	require.Equal(t, dbcontainer.StopOnly, dbcontainer.ParseStopMode("stop"))
	require.Equal(t, dbcontainer.StopRemove, dbcontainer.ParseStopMode(" Remove "))
	require.Equal(t, dbcontainer.StopOnly, dbcontainer.ParseStopMode(""))
	require.Equal(t, dbcontainer.StopOnly, dbcontainer.ParseStopMode("bogus"))
}

func Test_Config_Specs(t *testing.T) {
	t.Parallel()

	cfg := dbcontainer.Config{
		DBName:          "test_db",
		DBUser:          "test_user",
		DBPassword:      "test",
		Extensions:      "hstore,pgcrypto",
		ExtraDBName:     "test_db2",
		ExtraDBUser:     "test_user2",
		ExtraDBPassword: "test2",
	}

	require.Equal(t, dbcontainer.ResourceSpec{
		Database:   "test_db",
		User:       "test_user",
		Password:   "test",
		Extensions: "hstore,pgcrypto",
	}, cfg.Spec())

	require.Equal(t, dbcontainer.ResourceSpec{
		Database: "test_db2",
		User:     "test_user2",
		Password: "test2",
	}, cfg.ExtraSpec())
}
