// Package middleware provides net/http integration for authcore: a bearer
// token guard and context accessors for the validated identity.
package middleware
