package vlstore

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/leengari/tablestore/internal/digest"
)

// ===========================================================================
// VALUE STORE FILE FORMAT
// ===========================================================================
//
// Each category owns two append-only files that grow in lockstep.
//
// Value file (<Category>Vals.vlv):
// ┌─────────────────────────────────────────────────────────────────────────┐
// │ File Header (fixed 64 bytes, padded)                                    │
// ├─────────────────────────────────────────────────────────────────────────┤
// │ Record 0: [Length(4)] [CRC32(4)] [Payload (Length)] [Padding to 8-byte] │
// ├─────────────────────────────────────────────────────────────────────────┤
// │ Record 1: ...                                                           │
// └─────────────────────────────────────────────────────────────────────────┘
//
// Key file (<Category>Keys.vlk):
// ┌─────────────────────────────────────────────────────────────────────────┐
// │ File Header (fixed 64 bytes, padded)                                    │
// ├─────────────────────────────────────────────────────────────────────────┤
// │ Digest 0 (20 bytes) │ Digest 1 (20 bytes) │ ...                         │
// └─────────────────────────────────────────────────────────────────────────┘
//
// Digest i is the SHA-1 of value record i. A value is committed once its
// digest is in the key file; value records past the key count are dropped
// when the store is opened.
//
// All multi-byte integers are little-endian.
//
// ===========================================================================

// ByteOrder is the byte order used for all value store integers
var ByteOrder = binary.LittleEndian

// FileHeaderSize is the fixed size of both file headers
const FileHeaderSize = 64

// RecordHeaderSize is Length(4) + CRC32(4)
const RecordHeaderSize = 8

// MaxValueSize rejects absurd lengths read from a damaged header before allocating
const MaxValueSize = 1 << 30

// KeySize is the width of one key file entry
const KeySize = digest.Size

// FormatVersion is the current on-disk version of both files
const FormatVersion uint16 = 1

var (
	keysMagic = [8]byte{'T', 'S', 'V', 'L', 'K', 'E', 'Y', 'S'}
	valsMagic = [8]byte{'T', 'S', 'V', 'L', 'V', 'A', 'L', 'S'}
)

// AlignTo8 rounds up a size to the next 8-byte boundary
func AlignTo8(size int64) int64 {
	return (size + 7) &^ 7
}

// ===========================================================================
// FILE HEADER
// ===========================================================================

// fileHeader layout:
// ┌──────────┬────────────┬─────────────┬──────────────┬──────────┐
// │ Magic(8) │ Version(2) │ Category(1) │ CreatedAt(8) │ Pad(45)  │
// └──────────┴────────────┴─────────────┴──────────────┴──────────┘
type fileHeader struct {
	Magic     [8]byte
	Version   uint16
	Category  Category
	CreatedAt int64
}

func newFileHeader(magic [8]byte, cat Category) fileHeader {
	return fileHeader{
		Magic:     magic,
		Version:   FormatVersion,
		Category:  cat,
		CreatedAt: time.Now().Unix(),
	}
}

func encodeFileHeader(h fileHeader) []byte {
	buf := make([]byte, FileHeaderSize)
	copy(buf[0:8], h.Magic[:])
	ByteOrder.PutUint16(buf[8:10], h.Version)
	buf[10] = byte(h.Category)
	ByteOrder.PutUint64(buf[11:19], uint64(h.CreatedAt))
	return buf
}

func decodeFileHeader(buf []byte, magic [8]byte, cat Category) (fileHeader, error) {
	var h fileHeader
	if len(buf) < FileHeaderSize {
		return h, fmt.Errorf("incomplete file header: %d of %d bytes", len(buf), FileHeaderSize)
	}

	copy(h.Magic[:], buf[0:8])
	if h.Magic != magic {
		return h, fmt.Errorf("invalid magic: expected %q, got %q", magic[:], h.Magic[:])
	}

	h.Version = ByteOrder.Uint16(buf[8:10])
	if h.Version != FormatVersion {
		return h, fmt.Errorf("unsupported version: expected %d, got %d", FormatVersion, h.Version)
	}

	h.Category = Category(buf[10])
	if h.Category != cat {
		return h, fmt.Errorf("file belongs to category %s, expected %s", h.Category, cat)
	}

	h.CreatedAt = int64(ByteOrder.Uint64(buf[11:19]))
	return h, nil
}

// ===========================================================================
// VALUE RECORDS
// ===========================================================================

// recordSize is the on-disk footprint of a value of n bytes
func recordSize(n int) int64 {
	return AlignTo8(int64(RecordHeaderSize + n))
}

// encodeRecord frames a value with its length and checksum, padded to 8 bytes
func encodeRecord(value []byte) []byte {
	buf := make([]byte, recordSize(len(value)))
	ByteOrder.PutUint32(buf[0:4], uint32(len(value)))
	ByteOrder.PutUint32(buf[4:8], crc32.ChecksumIEEE(value))
	copy(buf[RecordHeaderSize:], value)
	return buf
}

// decodeRecordHeader returns the payload length and checksum
func decodeRecordHeader(buf []byte) (uint32, uint32) {
	return ByteOrder.Uint32(buf[0:4]), ByteOrder.Uint32(buf[4:8])
}

// verifyCRC32 checks the checksum of a payload
func verifyCRC32(payload []byte, expected uint32) error {
	if got := crc32.ChecksumIEEE(payload); got != expected {
		return fmt.Errorf("CRC mismatch: expected %08x, got %08x", expected, got)
	}
	return nil
}
