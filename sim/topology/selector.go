package topology

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netsim/netsim/sim"
)

// GraphSelector is the parsed form of the -g CLI flag: which entities
// the metrics consumer should keep in the snapshot stream it flushes.
// Grammar: "host|flow|link[:id,id,...]". An empty IDs list means "all
// entities of that kind".
type GraphSelector struct {
	Kind string // "host", "flow", or "link"
	IDs  []sim.NodeID
}

var validSelectorKind = map[string]bool{"host": true, "flow": true, "link": true}

// ParseGraphSelector validates and parses the -g flag's value. Malformed
// selectors are a ConfigError: bad CLI input is fatal before the
// simulation starts.
func ParseGraphSelector(raw string) (*GraphSelector, error) {
	if raw == "" {
		return nil, nil
	}

	kindPart, idsPart, hasIDs := strings.Cut(raw, ":")
	kindPart = strings.TrimSpace(kindPart)
	if !validSelectorKind[kindPart] {
		return nil, &sim.ConfigError{Msg: fmt.Sprintf("graph selector %q: kind must be host, flow, or link", raw)}
	}

	sel := &GraphSelector{Kind: kindPart}
	if !hasIDs {
		return sel, nil
	}
	for _, tok := range strings.Split(idsPart, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, &sim.ConfigError{Msg: fmt.Sprintf("graph selector %q: invalid id %q: %v", raw, tok, err)}
		}
		sel.IDs = append(sel.IDs, sim.NodeID(n))
	}
	return sel, nil
}

// Matches reports whether id, of the given kind ("host"/"flow"/"link"),
// passes this selector. A nil selector matches nothing selectively — the
// caller is expected to skip filtering entirely when no selector is set.
func (s *GraphSelector) Matches(kind string, id sim.NodeID) bool {
	if s == nil || s.Kind != kind {
		return false
	}
	if len(s.IDs) == 0 {
		return true
	}
	for _, want := range s.IDs {
		if want == id {
			return true
		}
	}
	return false
}
