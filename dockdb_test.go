package dockdb_test

import (
	"testing"

	"github.com/dockdb/dockdb"
)

func Test_SkipDisabled(t *testing.T) {
	t.Setenv("DOCKDB_DISABLE_TESTING", "true")

	dockdb.SkipDisabled(t)

	t.Fatal("expected test is skipped")
}

func Test_SkipUnlessIntegration(t *testing.T) {
	t.Setenv("DOCKDB_INTEGRATION", "")

	dockdb.SkipUnlessIntegration(t)

	t.Fatal("expected test is skipped")
}
