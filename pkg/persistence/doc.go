// Package persistence stores saved snapshot records on disk.
//
// Records are opaque CBOR blobs produced by the snapshot package, one
// file per record keyed by record ID. The engine treats saved records
// as write-only; this package is the collaborator that keeps them.
package persistence
