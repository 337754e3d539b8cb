// Package trust implements host-identity verification for remote shell
// connections.
//
// A host key presented during the handshake is reduced to a SHA-256
// fingerprint and compared against a two-tier trusted-host store: a
// session tier holding "trust once" decisions for the lifetime of the
// process, and a persistent tier backed by a JSON file. The session tier
// shadows the persistent tier, so the user's most recent in-process
// decision wins.
//
// When the fingerprint is unknown or mismatched, the Negotiator suspends
// the handshake and surfaces a Challenge to the owning application. The
// handshake resumes only when the application resolves the challenge with
// a Decision. There is at most one pending challenge per negotiator; a
// second concurrent challenge is a programming error and fails loudly.
package trust
