package core

import "github.com/hdlkit/orbit/internal/checksum"

// ComputeChecksum exposes the content-addressed tree digest of spec §4.B
// as a top-level core operation (spec §6 compute_checksum), so a caller
// never has to reach into internal/checksum directly.
func ComputeChecksum(root string) (checksum.Sum, error) {
	return checksum.Tree(root)
}
