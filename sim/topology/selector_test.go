package topology

import (
	"testing"

	"github.com/netsim/netsim/sim"
)

func TestParseGraphSelector_Empty_ReturnsNil(t *testing.T) {
	sel, err := ParseGraphSelector("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel != nil {
		t.Errorf("selector = %+v, want nil", sel)
	}
}

func TestParseGraphSelector_KindOnly_MatchesEveryID(t *testing.T) {
	sel, err := ParseGraphSelector("flow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sel.Matches("flow", 42) {
		t.Error("bare-kind selector should match any ID of that kind")
	}
	if sel.Matches("host", 42) {
		t.Error("selector for \"flow\" should not match \"host\"")
	}
}

func TestParseGraphSelector_WithIDs_MatchesOnlyListed(t *testing.T) {
	sel, err := ParseGraphSelector("link:3,7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sel.Matches("link", 3) || !sel.Matches("link", 7) {
		t.Error("selector should match listed IDs")
	}
	if sel.Matches("link", 9) {
		t.Error("selector should not match an unlisted ID")
	}
}

func TestParseGraphSelector_InvalidKind_ReturnsConfigError(t *testing.T) {
	_, err := ParseGraphSelector("process:1")
	var cfgErr *sim.ConfigError
	if err == nil {
		t.Fatal("expected an error for an invalid selector kind")
	}
	if !asConfigError(err, &cfgErr) {
		t.Errorf("error = %v (%T), want *sim.ConfigError", err, err)
	}
}

func TestParseGraphSelector_InvalidID_ReturnsConfigError(t *testing.T) {
	_, err := ParseGraphSelector("host:abc")
	if err == nil {
		t.Fatal("expected an error for a non-numeric id")
	}
}

func asConfigError(err error, target **sim.ConfigError) bool {
	ce, ok := err.(*sim.ConfigError)
	if ok {
		*target = ce
	}
	return ok
}
