// Package storage provides the object storage client for the snapshot archive.
//
// Successfully parsed snapshot payloads are archived as raw JSON under
// snapshots/<account>/<timestamp>.json so that an import can be replayed or
// inspected after the fact. Archiving is best-effort: a storage failure is
// logged and never fails the import that produced it.
//
// The Client interface wraps the Minio SDK; mocks/ contains a testify mock
// implementation for tests.
package storage
