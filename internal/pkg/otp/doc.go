// Package otp generates numeric one-time passcodes.
//
// Codes are meant to be sent to the user over a side channel (email) and typed
// back in. The generator only produces the code; persistence, expiry and
// one-time use are owned by the caller's store.
package otp
