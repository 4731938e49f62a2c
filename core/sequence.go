package core

import "encoding/binary"

// SequenceParser extracts the test sequence number from a publication.
type SequenceParser interface {
	Parse(msg ReceivedMessage) uint32
}

// SequenceParserFunc adapts a plain function to SequenceParser.
type SequenceParserFunc func(msg ReceivedMessage) uint32

func (f SequenceParserFunc) Parse(msg ReceivedMessage) uint32 { return f(msg) }

// PayloadSequenceParser reads the sequence number from the first four
// payload bytes, big-endian. Short payloads are zero-extended on the right.
type PayloadSequenceParser struct{}

func (PayloadSequenceParser) Parse(msg ReceivedMessage) uint32 {
	var buf [4]byte
	copy(buf[:], msg.Payload)
	return binary.BigEndian.Uint32(buf[:])
}

// EncodeSequence builds a payload of size bytes carrying seq in its
// first four bytes. size is raised to 4 when smaller.
func EncodeSequence(seq uint32, size int) []byte {
	if size < 4 {
		size = 4
	}
	payload := make([]byte, size)
	binary.BigEndian.PutUint32(payload, seq)
	return payload
}
