// Package vault resolves secret references used in configuration.
package vault

import "context"

// Type represents the type of vault.
type Type string

const (
	// TypeDotEnv resolves dotenv:// references from the process environment.
	TypeDotEnv Type = "dotenv"
)

// Resolver turns a secret reference into its value. A reference without a
// known scheme is returned unchanged so plain values keep working.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}
