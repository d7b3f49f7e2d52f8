package memo

import "go.trai.ch/zerr"

var (
	// ErrStaleHit is returned in cross-check mode when a cache hit differs from
	// a fresh recomputation of the same call.
	ErrStaleHit = zerr.New("cache hit diverges from recomputation")

	// ErrResultType is returned when a cached result does not have the type
	// requested by the caller, which means two functions share a FuncID.
	ErrResultType = zerr.New("cached result has unexpected type")
)
