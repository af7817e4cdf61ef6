package pngchunk

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// Signature is the fixed 8-byte header every PNG stream starts with.
var Signature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk types the codec knows about.
const (
	TypeIHDR = "IHDR"
	TypePLTE = "PLTE"
	TypeTRNS = "tRNS"
	TypeIDAT = "IDAT"
	TypeIEND = "IEND"
	TypeTEXT = "tEXt"
	TypeZTXT = "zTXt"
	TypeITXT = "iTXt"
)

// chunkOverhead covers the length, type, and CRC fields around chunk data.
const chunkOverhead = 12

// Chunk is one length-prefixed PNG segment. Data aliases the parsed buffer.
type Chunk struct {
	Type   string
	Length uint32
	Data   []byte
	CRC    [4]byte
}

// Options controls how a buffer is walked.
type Options struct {
	// StopAtIEND ends the walk right after the IEND chunk. When false the walk
	// continues until fewer than a chunk header's worth of bytes remain.
	StopAtIEND bool
}

// HasSignature reports whether buf starts with the PNG signature.
func HasSignature(buf []byte) bool {
	return len(buf) >= len(Signature) && bytes.Equal(buf[:len(Signature)], Signature)
}

// Parse splits buf into chunks, stopping at IEND. It is the walk used when
// reading metadata.
func Parse(buf []byte) ([]Chunk, error) {
	return ParseWithOptions(buf, Options{StopAtIEND: true})
}

// ParseWithOptions splits buf into its ordered chunks. CRC fields are copied
// but not verified.
func ParseWithOptions(buf []byte, opts Options) ([]Chunk, error) {
	if !HasSignature(buf) {
		return nil, signatureError()
	}

	var chunks []Chunk
	total := len(buf)
	offset := len(Signature)
	for offset < total-8 {
		length := binary.BigEndian.Uint32(buf[offset : offset+4])
		typ := string(buf[offset+4 : offset+8])

		// uint64 keeps a hostile length field from wrapping around.
		dataStart := uint64(offset) + 8
		dataEnd := dataStart + uint64(length)
		if dataEnd+4 > uint64(total) {
			return nil, truncatedError(offset)
		}

		chunk := Chunk{
			Type:   typ,
			Length: length,
			Data:   buf[dataStart:dataEnd:dataEnd],
		}
		copy(chunk.CRC[:], buf[dataEnd:dataEnd+4])
		chunks = append(chunks, chunk)

		offset = int(dataEnd + 4)
		if opts.StopAtIEND && typ == TypeIEND {
			break
		}
	}
	return chunks, nil
}

// NewChunk builds a chunk with a freshly computed CRC.
func NewChunk(typ string, data []byte) Chunk {
	c := Chunk{Type: typ, Length: uint32(len(data)), Data: data}
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.BigEndian.PutUint32(c.CRC[:], crc.Sum32())
	return c
}

// Encode serializes the signature followed by chunks exactly as given. CRCs
// are written through unchanged.
func Encode(chunks []Chunk) []byte {
	size := len(Signature)
	for _, c := range chunks {
		size += chunkOverhead + len(c.Data)
	}
	out := make([]byte, 0, size)
	out = append(out, Signature...)
	for _, c := range chunks {
		out = appendChunk(out, c)
	}
	return out
}

func appendChunk(dst []byte, c Chunk) []byte {
	dst = binary.BigEndian.AppendUint32(dst, c.Length)
	dst = append(dst, c.Type...)
	dst = append(dst, c.Data...)
	return append(dst, c.CRC[:]...)
}
