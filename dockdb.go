// Package dockdb provisions disposable database containers as test
// fixtures: it starts a named container, waits until the engine and then
// the target user/database accept connections, and creates or drops the
// configured database resources. Platform packages (postgres, mysql,
// redis, minio) wire the shared dbcontainer orchestrator for one engine.
package dockdb

import (
	"os"
	"strconv"
	"testing"
)

// SkipDisabled skips the test when DOCKDB_DISABLE_TESTING is set to a
// true value.
func SkipDisabled(t *testing.T) {
	env := os.Getenv("DOCKDB_DISABLE_TESTING")

	disabled, _ := strconv.ParseBool(env)

	if disabled {
		t.Skipf("test skipped because DOCKDB_DISABLE_TESTING=%s", env)
	}
}

// SkipUnlessIntegration skips the test unless DOCKDB_INTEGRATION is set
// to a true value. Integration tests need a working container runtime.
func SkipUnlessIntegration(t *testing.T) {
	env := os.Getenv("DOCKDB_INTEGRATION")

	enabled, _ := strconv.ParseBool(env)

	if !enabled {
		t.Skip("test skipped, set DOCKDB_INTEGRATION=true to run against a container runtime")
	}
}
