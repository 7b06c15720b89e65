package redis

const (
	// KeyDocument holds the serialized document
	KeyDocument = "tweetvault:db"
	// KeyPrefixLookup is the prefix for cached status lookups
	KeyPrefixLookup = "tweetvault:lookup:"
)

// DocumentKey returns the Redis key of the document
func DocumentKey() string {
	return KeyDocument
}

// LookupKey returns the Redis key for a cached status lookup
func LookupKey(statusID string) string {
	return KeyPrefixLookup + statusID
}
