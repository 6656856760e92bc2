// Package fetch defines the uniform lifecycle shared by every data source
// that retrieves externally-sourced, slowly-changing data: validate the
// parameters, try the cache, fall back to the source, store the result.
package fetch

import (
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidParameters marks a contradictory or incomplete request.
	// It is surfaced to the caller immediately and never retried.
	ErrInvalidParameters = errors.New("fetch: invalid parameters")

	// ErrSourceUnavailable marks a failed or malformed external call. It
	// propagates unchanged; the contract performs no retries.
	ErrSourceUnavailable = errors.New("fetch: source unavailable")
)

// Source is implemented by every concrete data source. P is the parameter
// type, R the result type.
type Source[P, R any] interface {
	// Validate checks the parameter combination, returning an error
	// wrapping ErrInvalidParameters when it is contradictory or incomplete.
	Validate(p P) error

	// Key returns a stable identity for the request, used to collapse
	// concurrent identical fetches.
	Key(p P) string

	// FromCache returns a previously cached usable result, or ok=false
	// when nothing usable exists.
	FromCache(p P) (r R, ok bool, err error)

	// Retrieve performs the source-specific external retrieval.
	Retrieve(p P) (R, error)

	// Store caches a freshly retrieved result.
	Store(p P, r R) error
}

// Run executes the fetch lifecycle for one request. When force is true the
// cache read is skipped and the source is always consulted; the result is
// still stored. Concurrent calls with the same Key share a single
// retrieval through g.
func Run[P, R any](g *singleflight.Group, src Source[P, R], p P, force bool) (R, error) {
	var zero R

	if err := src.Validate(p); err != nil {
		return zero, err
	}

	v, err, _ := g.Do(src.Key(p), func() (any, error) {
		if !force {
			r, ok, err := src.FromCache(p)
			if err != nil {
				// A broken cache read degrades to a fresh retrieval.
				log.Warn().Err(err).Str("key", src.Key(p)).Msg("Cache read failed, falling back to source")
			} else if ok {
				log.Debug().Str("key", src.Key(p)).Msg("Serving fetch from cache")
				return r, nil
			}
		}

		r, err := src.Retrieve(p)
		if err != nil {
			return nil, err
		}

		if err := src.Store(p, r); err != nil {
			// A failed cache write must not discard a good result.
			log.Warn().Err(err).Str("key", src.Key(p)).Msg("Failed to cache fetched result")
		}
		return r, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(R), nil
}
