// Package fetch downloads the artifact through an ordered list of
// independent methods.
//
// The built-in methods are, in default order:
//   - curl: an external curl restricted to IPv4 that fails on HTTP error
//     status and streams its verbose trace into the debug log
//   - wget: a quiet external wget
//   - http: the in-process net/http client
//
// A Chain tries the methods in order and stops at the first one reporting
// success. Success is judged only by the method's own status; the downloaded
// bytes are inspected later by package verify. There is no retry of a
// failed method and no backoff.
package fetch
