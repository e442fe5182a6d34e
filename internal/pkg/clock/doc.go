// Package clock abstracts the time source so OTP validation and token
// verification can be driven by a fixed clock in tests.
package clock
