package router

import "hash/fnv"

// Magic derives the deterministic 32-bit broker tag for one
// (account, platform asset) pair so that all legs of one intent group
// together on the broker side.
func Magic(accountUID, platformAssetID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(accountUID))
	h.Write([]byte(":"))
	h.Write([]byte(platformAssetID))
	return h.Sum32()
}
