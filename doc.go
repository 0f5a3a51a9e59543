// Package authkit provides the authentication and session-lifecycle core for
// MARS services: credential verification, short-lived signed access tokens,
// rotating opaque refresh tokens with persistent revocation state, and
// claim-based permission policies.
//
// Session lifecycle:
//   - SessionManager orchestrates the four public operations (Register, Login,
//     Refresh, Logout) on top of a user store and a refresh-token store. Login
//     and Refresh return a TokenPair; authentication failures are always the
//     same uniform error so callers cannot distinguish a missing account from
//     a bad password or a revoked token.
//   - Refresh tokens rotate on use. A presented token is revoked and replaced
//     inside a single store transaction, so a replayed token is always found
//     revoked and rejected. Revoked records are kept as an audit trail.
//
// Authorization:
//   - Authorizer evaluates explicit per-operation policies against the
//     permission claims embedded in a validated access token. Deny is the
//     default; operations with no permission requirement must still be
//     registered with AuthenticatedOnly.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by SessionManager to
//     describe login, refresh, and revocation events. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
package authkit
