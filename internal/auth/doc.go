// Package auth implements the gateway's two login paths and the HTTP surface
// that fronts them.
//
// The local path (LocalVerifier) covers email/password registration and
// login, including the one-time lazy migration that backfills a bcrypt hash
// onto legacy accounts on their first successful login. The provider path
// (OAuth) drives the Authorization Code flow against a Google-style identity
// provider and hands the verified profile to the Resolver, which maps it to
// a canonical user record by email.
//
// Both paths converge on the same outcome: a user id written into the
// server-side session. Nothing downstream can tell which path produced it.
package auth
