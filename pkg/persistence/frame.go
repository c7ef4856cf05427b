// Package persistence implements the on-disk framing used by the dataset
// cache file.
//
// Each record is stored as a self-describing binary frame carrying a CRC32
// of its payload, so a truncated or bit-flipped cache file is detected on
// read instead of being decoded into garbage.
package persistence

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// Constants for the frame binary protocol.
const (
	// MagicByte is the marker used to identify the start of a valid frame.
	MagicByte = 0xA5

	// HeaderSize is the fixed size of the frame metadata:
	// 1 byte (Magic) + 1 byte (OpCode) + 4 bytes (Length) + 4 bytes (CRC32) = 10 bytes.
	HeaderSize = 10

	// MaxPayloadSize bounds the length field so a corrupted header cannot
	// make the reader allocate gigabytes.
	MaxPayloadSize = 1 << 30
)

// OpCode tags the content of a frame.
type OpCode byte

const (
	// OpVersion frames hold the dataset version tag.
	OpVersion OpCode = 0x01
	// OpDataset frames hold the encoded dataset blob.
	OpDataset OpCode = 0x02
)

var (
	// ErrInvalidMagic indicates the stream lost synchronization or is not a frame file.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch indicates data corruption within the frame payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the file ended abruptly (e.g., power loss during write).
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrFrameTooLarge indicates a length field above MaxPayloadSize.
	ErrFrameTooLarge = errors.New("frame too large")
)

// IsCorruption reports whether err is one of the frame validation errors.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrInvalidMagic) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrIncompleteFrame) ||
		errors.Is(err, ErrFrameTooLarge)
}

// FrameWriter handles the safe writing of binary frames to an io.Writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter creates a writer that wraps an underlying io.Writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame encodes the payload into a binary frame and writes it.
// Frame Format: [Magic(1)][OpCode(1)][Length(4)][CRC(4)][Payload(N)]
func (fw *FrameWriter) WriteFrame(op OpCode, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}

	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = byte(op)
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	// Callers pass a bufio.Writer, so header and payload cost one syscall.
	if _, err := fw.w.Write(header); err != nil {
		return err
	}
	if _, err := fw.w.Write(payload); err != nil {
		return err
	}
	return nil
}

// ReadFrame reads the next frame from the reader.
// It validates the Magic Byte, the length bound and the CRC32 Checksum.
// io.EOF is returned only when the stream ends exactly at a frame boundary.
func ReadFrame(r io.Reader) (OpCode, []byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, ErrIncompleteFrame
	}

	if header[0] != MagicByte {
		return 0, nil, ErrInvalidMagic
	}

	op := OpCode(header[1])
	length := binary.LittleEndian.Uint32(header[2:6])
	expectedCRC := binary.LittleEndian.Uint32(header[6:10])
	if length > MaxPayloadSize {
		return op, nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		// Even a clean EOF is an error here: we expected 'length' bytes.
		return op, nil, ErrIncompleteFrame
	}

	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return op, nil, ErrChecksumMismatch
	}
	return op, payload, nil
}
