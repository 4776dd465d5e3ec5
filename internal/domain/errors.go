// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist or does not
// belong to the expected parent.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a request that is well-formed but semantically invalid.
var ErrValidation = errors.New("validation error")

// ErrGeneration indicates the assistant could not produce a usable response.
var ErrGeneration = errors.New("generation failed")
