package domain

import "time"

// Capability constants for collection grants.
const (
	CapRead          = "READ"           // select on the collection table
	CapSequenceUsage = "SEQUENCE_USAGE" // usage/read on the collection's identity sequence
)

// PublicGrantee receives grants made by publish_collection.
const PublicGrantee = "public"

// CollectionGrant is a capability granted on a collection to a principal
// (or to everyone via the "public" grantee). Grants live in the metastore,
// not in the storage engine's native privilege system.
type CollectionGrant struct {
	ID         int64     `json:"id"`
	Collection string    `json:"collection"`
	Grantee    string    `json:"grantee"`
	Capability string    `json:"capability"`
	GrantedAt  time.Time `json:"granted_at"`
}
