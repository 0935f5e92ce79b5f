// Package memory is a reference CredentialStore backed by process memory.
// It exists for tests, examples, and prototyping; real deployments implement
// authcore.CredentialStore against their own database.
package memory
