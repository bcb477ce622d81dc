// Package auth is the authentication and authorization engine for the
// workforce platform: credential verification, the account lockout state
// machine, role-based permission resolution, and signed bearer-token
// issuance/validation.
//
// Lockout:
//   - LockoutPolicy centralizes the failure threshold and lock window.
//     Its transitions are pure functions returning a LockoutMutation that the
//     caller persists, so the auto-unlock of an expired lock is an explicit
//     write instead of a side effect hidden inside a status check.
//
// RBAC:
//   - Users hold role identifiers; Role and Permission are administrative
//     entities reached through the read-only RoleDirectory. Resolver computes
//     the effective permission union at evaluation time, with no caching.
//
// Tokens:
//   - TokenService signs access and refresh tokens with HMAC-SHA512 using a
//     base64-provisioned symmetric key, and parses them back into
//     distinguishable failure kinds (expired, bad signature, malformed,
//     unsupported) so callers can branch retry behavior.
//
// Orchestration:
//   - Auther composes the pieces into Login and Register. Lockout-state
//     writes share a transaction with the evaluation that produced them, and
//     unknown usernames answer exactly like wrong passwords.
package auth
