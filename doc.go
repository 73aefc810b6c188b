// Package auth provides the identity and event-registration subsystem for
// the station site: credential handling, JWT issuance, role-gated HTTP
// middleware, a member directory, and capacity-bounded event signups.
//
// Accounts:
//   - Accounts owns the credential lifecycle. Registration hashes passwords
//     with bcrypt and issues a signed token immediately; login resolves only
//     active accounts and reports every failure mode with the same
//     invalid-credentials error so callers cannot probe which emails exist.
//   - EnsureRootAdmin provisions a protected admin account at startup. The
//     protected flag blocks role changes and deletion for that account no
//     matter who asks.
//
// Tokens:
//   - TokenService signs HS256 JWTs carrying the user id, email, and role.
//     Verify never returns an error; a bad token of any kind yields nil
//     claims and the caller treats the request as anonymous.
//
// Event registrations:
//   - Registrations enforces capacity atomically. The seat count is claimed
//     with a guarded UPDATE inside the same transaction that inserts the
//     registration row, so concurrent signups for the last seat resolve to
//     exactly one winner.
//
// HTTP surface:
//   - Controller exposes the REST routes; Protected and ProtectedWithRole
//     build the fiber middleware that distinguishes missing or invalid
//     credentials (401) from insufficient role (403).
package auth
