// Package archive implements the .ip archive format of spec §4.B: a
// version byte, a zlib-compressed header holding the manifest and lockfile
// text, and a zip body whose members are zstd-compressed. The zlib header
// mirrors original_source/src/core/iparchive.rs's use of
// flate2::ZlibEncoder; the zip body borrows klauspost/compress's zstd
// implementation (a direct dependency of AKJUS-bsc-erigon, indirect of
// nmxmxh-inos_v1) registered as a custom archive/zip compressor, since the
// stdlib zip package only ships Store and Deflate.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/hdlkit/orbit/internal/diag"
)

// Version is the current archive format version (spec §4.B byte [0]).
const Version = 1

// zstdMethod is the zip method ID APPNOTE.TXT reserves for Zstandard.
const zstdMethod = 93

func init() {
	zip.RegisterCompressor(zstdMethod, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
	zip.RegisterDecompressor(zstdMethod, func(r io.Reader) io.ReadCloser {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return errReadCloser{err}
		}
		return readCloserFunc{r: dec, close: func() error { dec.Close(); return nil }}
	})
}

type errReadCloser struct{ err error }

func (e errReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e errReadCloser) Close() error             { return nil }

type readCloserFunc struct {
	r     io.Reader
	close func() error
}

func (r readCloserFunc) Read(p []byte) (int, error) { return r.r.Read(p) }
func (r readCloserFunc) Close() error                { return r.close() }

// Write packs root's file tree plus the manifest and lockfile text into the
// .ip format of spec §4.B, writing the result to w.
func Write(w io.Writer, root, manifestText, lockText string) error {
	if _, err := w.Write([]byte{Version}); err != nil {
		return err
	}

	header, err := encodeHeader(manifestText, lockText)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(header)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return err
	}

	return writeZipBody(w, root)
}

func encodeHeader(manifestText, lockText string) ([]byte, error) {
	var plain bytes.Buffer
	writeLenPrefixed(&plain, manifestText)
	writeLenPrefixed(&plain, lockText)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(plain.Bytes()); err != nil {
		return nil, fmt.Errorf("compressing archive header: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive header compressor: %w", err)
	}
	return compressed.Bytes(), nil
}

func writeLenPrefixed(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writeZipBody(w io.Writer, root string) error {
	rels, err := relativeFiles(root)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	for _, rel := range rels {
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			return diag.IoFailure{Path: full, Cause: err}
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = rel
		hdr.Method = zstdMethod
		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(full)
		if err != nil {
			return diag.IoFailure{Path: full, Cause: err}
		}
		_, copyErr := io.Copy(dst, src)
		src.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return zw.Close()
}

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

// Header is the manifest/lockfile text decoded from an archive's header
// block (spec §4.B).
type Header struct {
	ManifestText string
	LockText     string
}

// Read parses an archive from r: it validates the version byte, decodes
// the header, and extracts the zip body into destRoot.
func Read(r io.Reader, destRoot string) (Header, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Header{}, err
	}
	if len(raw) < 5 {
		return Header{}, diag.ArchiveMalformed{Path: destRoot, Reason: "truncated archive"}
	}
	if raw[0] != Version {
		return Header{}, diag.ArchiveMalformed{Path: destRoot, Reason: fmt.Sprintf("unknown archive version %d", raw[0])}
	}
	hlen := binary.BigEndian.Uint32(raw[1:5])
	if uint32(len(raw)) < 5+hlen {
		return Header{}, diag.ArchiveMalformed{Path: destRoot, Reason: "truncated archive header"}
	}
	headerBytes := raw[5 : 5+hlen]
	header, err := decodeHeader(headerBytes)
	if err != nil {
		return Header{}, diag.ArchiveMalformed{Path: destRoot, Reason: err.Error()}
	}

	body := raw[5+hlen:]
	if err := extractZipBody(body, destRoot); err != nil {
		return Header{}, err
	}
	return header, nil
}

// ReadHeader parses just the manifest/lockfile header of an archive,
// without extracting its zip body — used by catalog discovery to inspect a
// download without unpacking it.
func ReadHeader(r io.Reader) (Header, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Header{}, err
	}
	if len(raw) < 5 {
		return Header{}, diag.ArchiveMalformed{Path: "", Reason: "truncated archive"}
	}
	if raw[0] != Version {
		return Header{}, diag.ArchiveMalformed{Path: "", Reason: fmt.Sprintf("unknown archive version %d", raw[0])}
	}
	hlen := binary.BigEndian.Uint32(raw[1:5])
	if uint32(len(raw)) < 5+hlen {
		return Header{}, diag.ArchiveMalformed{Path: "", Reason: "truncated archive header"}
	}
	header, err := decodeHeader(raw[5 : 5+hlen])
	if err != nil {
		return Header{}, diag.ArchiveMalformed{Path: "", Reason: err.Error()}
	}
	return header, nil
}

func decodeHeader(compressed []byte) (Header, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return Header{}, fmt.Errorf("decompressing archive header: %w", err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return Header{}, fmt.Errorf("reading archive header: %w", err)
	}

	manifestText, rest, err := readLenPrefixed(plain)
	if err != nil {
		return Header{}, err
	}
	lockText, _, err := readLenPrefixed(rest)
	if err != nil {
		return Header{}, err
	}
	return Header{ManifestText: manifestText, LockText: lockText}, nil
}

func readLenPrefixed(buf []byte) (string, []byte, error) {
	if len(buf) < 4 {
		return "", nil, fmt.Errorf("truncated length-prefixed field")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < n {
		return "", nil, fmt.Errorf("truncated length-prefixed field body")
	}
	return string(buf[:n]), buf[n:], nil
}

func extractZipBody(body []byte, destRoot string) error {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return diag.ArchiveMalformed{Path: destRoot, Reason: "malformed zip body: " + err.Error()}
	}
	for _, f := range zr.File {
		if err := extractOne(f, destRoot); err != nil {
			return err
		}
	}
	return nil
}

func extractOne(f *zip.File, destRoot string) error {
	cleanName := filepath.FromSlash(f.Name)
	target := filepath.Join(destRoot, cleanName)
	if !strings.HasPrefix(target, filepath.Clean(destRoot)+string(os.PathSeparator)) {
		return diag.ArchiveMalformed{Path: f.Name, Reason: "entry escapes archive root"}
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return diag.ArchiveMalformed{Path: f.Name, Reason: err.Error()}
	}
	defer src.Close()
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode())
	if err != nil {
		return diag.IoFailure{Path: target, Cause: err}
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
