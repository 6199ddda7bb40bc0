// Package validator validates request and domain structs through struct tags.
//
// Business code depends on the Validator interface; V10Validator is the
// go-playground/validator implementation with English messages.
package validator
