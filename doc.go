// Package revieweat is the backend core for the revieweat service: user
// accounts with JWT bearer sessions, restaurant reviews with image
// attachments, and per-user recent search history.
//
// Authentication:
//   - TokenService issues and validates signed HS256 tokens whose subject is
//     the user's email. TTL is always supplied by the caller's policy.
//   - Auther is the gate every protected request goes through: validate the
//     token, resolve the subject to a stored user, reject uniformly on any
//     credential problem, and surface storage outages as a distinct
//     retryable condition.
//
// Session mirror:
//   - The latest issued token plus its cookie flags and expiry are mirrored
//     onto the user row for audit and logout. The mirror is a convenience,
//     not the validation path; mirror writes never fail a login.
//   - SweepExpiredSessions clears mirrors whose expiry passed. It only
//     touches already-expired rows, so it is safe to run while logins are
//     in flight.
package revieweat
