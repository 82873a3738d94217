package rowfile

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ===========================================================================
// ROW FILE FORMAT
// ===========================================================================
//
// ┌─────────────────────────────────────────────────────────────────────────┐
// │ File Header (fixed 64 bytes, padded)                                    │
// ├─────────────────────────────────────────────────────────────────────────┤
// │ Row 0 (RowWidth bytes) │ Row 1 (RowWidth bytes) │ ...                   │
// └─────────────────────────────────────────────────────────────────────────┘
//
// Header layout:
// ┌──────────┬────────────┬────────┬─────────────┬─────────────┬──────────────┬─────────┐
// │ Magic(8) │ Version(2) │ Pad(2) │ RowWidth(4) │ RowCount(8) │ CreatedAt(8) │ Pad(32) │
// └──────────┴────────────┴────────┴─────────────┴─────────────┴──────────────┴─────────┘
// Offsets:  0          8         10         12            16            24            32
//
// RowCount is the number of committed rows. Bytes beyond
// HeaderSize + RowCount*RowWidth are not part of the table.
//
// ===========================================================================

// ByteOrder is the byte order used for header integers
var ByteOrder = binary.LittleEndian

// HeaderSize is the fixed size of the row file header
const HeaderSize = 64

// FormatVersion is the current row file version
const FormatVersion uint16 = 1

// rowCountOffset is where the committed row count lives in the header
const rowCountOffset = 16

var rowMagic = [8]byte{'T', 'S', 'R', 'O', 'W', 'T', 'B', 'L'}

// Header is the decoded row file header
type Header struct {
	Magic     [8]byte
	Version   uint16
	RowWidth  uint32
	RowCount  uint64
	CreatedAt int64
}

func newHeader(rowWidth int) Header {
	return Header{
		Magic:     rowMagic,
		Version:   FormatVersion,
		RowWidth:  uint32(rowWidth),
		CreatedAt: time.Now().Unix(),
	}
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], h.Magic[:])
	ByteOrder.PutUint16(buf[8:10], h.Version)
	ByteOrder.PutUint32(buf[12:16], h.RowWidth)
	ByteOrder.PutUint64(buf[16:24], h.RowCount)
	ByteOrder.PutUint64(buf[24:32], uint64(h.CreatedAt))
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("incomplete header: %d of %d bytes", len(buf), HeaderSize)
	}

	copy(h.Magic[:], buf[0:8])
	if h.Magic != rowMagic {
		return h, fmt.Errorf("invalid magic: expected %q, got %q", rowMagic[:], h.Magic[:])
	}

	h.Version = ByteOrder.Uint16(buf[8:10])
	if h.Version != FormatVersion {
		return h, fmt.Errorf("unsupported version: expected %d, got %d", FormatVersion, h.Version)
	}

	h.RowWidth = ByteOrder.Uint32(buf[12:16])
	h.RowCount = ByteOrder.Uint64(buf[16:24])
	h.CreatedAt = int64(ByteOrder.Uint64(buf[24:32]))
	return h, nil
}
