package app

import "github.com/example/crmsync/internal/ports/secondary"

// ChainStatus is the cooperative cancellation flag for one sync chain.
// Termination is write-once: a terminated chain never un-terminates.
// Long-running chains poll IsNotTerminated between steps for early exit.
type ChainStatus struct {
	cache   secondary.Cache
	chainID string
}

// Terminate marks the chain as terminated. Idempotent.
func (s *ChainStatus) Terminate() {
	s.cache.Add("chain:terminated:"+s.chainID, true, 0)
}

// IsTerminated reports whether the chain has been terminated.
// Defaults to false when no flag exists.
func (s *ChainStatus) IsTerminated() bool {
	_, ok := s.cache.Get("chain:terminated:" + s.chainID)
	return ok
}

// IsNotTerminated is the polling form used between chain steps.
func (s *ChainStatus) IsNotTerminated() bool {
	return !s.IsTerminated()
}

// ChainStatusFactory builds ChainStatus handles over the shared cache.
type ChainStatusFactory struct {
	cache secondary.Cache
}

// NewChainStatusFactory creates a factory over the shared cache.
func NewChainStatusFactory(cache secondary.Cache) *ChainStatusFactory {
	return &ChainStatusFactory{cache: cache}
}

// For returns the status handle for the given chain id.
func (f *ChainStatusFactory) For(chainID string) *ChainStatus {
	return &ChainStatus{cache: f.cache, chainID: chainID}
}
