package bootstrap

import "context"

// Static is the simplest Bootstrap: a fixed list of peer addresses
// supplied at startup (e.g. via config or a flag), with no registration
// side effects. This is the default mode (spec §6 configuration inputs
// don't mandate any particular discovery mechanism).
type Static struct {
	peers []string
}

// NewStaticBootstrap builds a Bootstrap that always returns peers
// verbatim from Discover and treats Register/Deregister as no-ops.
func NewStaticBootstrap(peers []string) *Static {
	cp := make([]string, len(peers))
	copy(cp, peers)
	return &Static{peers: cp}
}

func (s *Static) Discover(ctx context.Context) ([]string, error) {
	return s.peers, nil
}

func (s *Static) Register(ctx context.Context, addr string) error   { return nil }
func (s *Static) Deregister(ctx context.Context, addr string) error { return nil }
