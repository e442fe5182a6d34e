// Package validator wraps struct-tag validation behind a small interface.
//
// Callers hold the Validator interface; the go-playground/validator v10
// implementation translates field errors into user-facing messages.
package validator
