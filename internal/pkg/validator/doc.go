// Package validator validates request and domain structs.
//
// Use cases depend on the Validator interface. The go-playground/validator v10
// implementation adds the rules the auth flows need: password, username,
// identifier (username or email) and passcode.
package validator
