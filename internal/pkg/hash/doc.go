// Package hash provides salted, work-factor based hashing for secrets.
//
// Only the hash is ever stored. Login compares the user's input against the
// stored hash with Verify, which answers with a plain bool so that a wrong
// password is an ordinary outcome rather than an error.
package hash
