// Package internal holds helpers shared by the careauth root package that
// must not appear in the public API surface.
package internal
