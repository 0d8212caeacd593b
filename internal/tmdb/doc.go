// Package tmdb is the HTTP client for The Movie Database API.
//
// It covers the four resources the ranking pipeline needs: date-ranged
// discovery, per-movie detail, per-movie watch providers, and the genre
// reference list. Every call runs under its own deadline. Non-2xx responses
// and transport failures are translated into apperr codes, so callers never
// inspect raw HTTP status values. Watch-provider lookups return a result value
// instead of an error because provider data is supplementary.
package tmdb
