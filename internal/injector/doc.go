// Package injector assembles shared dependencies with google/wire.
// Run `wire ./internal/injector` after changing providers.
package injector
