// Package checksum computes the content-addressed digest of an IP's file
// tree (spec §4.B), grounded on the teacher's own sha256 use in
// internal/indexer/cache.go (hashFile), generalized to a whole-tree digest
// that is stable across CRLF/LF line-ending differences.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Sum is a 256-bit digest, rendered as lowercase hex by String.
type Sum [sha256.Size]byte

func (s Sum) String() string { return fmt.Sprintf("%x", s[:]) }

// Prefix10 returns the first 10 hex characters, used to name cache slots
// (spec §3 "CacheSlot name").
func (s Sum) Prefix10() string {
	full := s.String()
	if len(full) < 10 {
		return full
	}
	return full[:10]
}

// Tree computes the checksum of every regular file under root (spec §4.B):
// for each file, SHA-256 over its bytes with carriage returns stripped,
// skipping any file containing a NUL byte; the per-file digests are
// concatenated in path order, followed by the SHA-256 of the concatenated
// path strings of the hashed files (a skipped file's path is left out too),
// and the whole concatenation is hashed again.
func Tree(root string) (Sum, error) {
	paths, err := relativeFiles(root)
	if err != nil {
		return Sum{}, err
	}
	return fromPaths(root, paths)
}

// relativeFiles walks root and returns every regular file's slash-separated
// path relative to root, sorted ascending so the digest does not depend on
// filesystem walk order.
func relativeFiles(root string) ([]string, error) {
	var rels []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(rels)
	return rels, nil
}

func fromPaths(root string, rels []string) (Sum, error) {
	var body bytes.Buffer
	var pathNames bytes.Buffer

	for _, rel := range rels {
		full := filepath.Join(root, filepath.FromSlash(rel))
		raw, err := os.ReadFile(full)
		if err != nil {
			return Sum{}, fmt.Errorf("reading %s: %w", full, err)
		}
		if bytes.IndexByte(raw, 0x00) != -1 {
			continue
		}
		stripped := bytes.ReplaceAll(raw, []byte{0x0D}, nil)
		digest := sha256.Sum256(stripped)
		body.Write(digest[:])
		pathNames.WriteString(rel)
	}

	pathDigest := sha256.Sum256(pathNames.Bytes())
	body.Write(pathDigest[:])

	return sha256.Sum256(body.Bytes()), nil
}
