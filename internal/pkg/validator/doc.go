// Package validator validates request and domain structs behind a small
// interface.
//
// Use cases depend on the Validator interface rather than a concrete
// library so rules stay shared and swappable. The default implementation
// wraps go-playground/validator v10 and registers the custom rules this
// service needs, such as otpcode.
package validator
