package errstatus

import (
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Side-channel keys.
const (
	HeaderHTTP = "Error-Details-Bin"
	HeaderAMQP = "error-details-bin"
)

const (
	fieldCode    protowire.Number = 1
	fieldMessage protowire.Number = 2
	fieldDetails protowire.Number = 3
)

var ErrMalformed = errors.New("errstatus: malformed record")

// Marshal encodes s in protobuf wire format. Zero fields are omitted.
func Marshal(s *Status) []byte {
	if s == nil {
		return nil
	}
	var b []byte
	if s.Code != CodeUnspecified {
		b = protowire.AppendTag(b, fieldCode, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(s.Code))
	}
	if s.Message != "" {
		b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
		b = protowire.AppendString(b, s.Message)
	}
	if s.Details != "" {
		b = protowire.AppendTag(b, fieldDetails, protowire.BytesType)
		b = protowire.AppendString(b, s.Details)
	}
	return b
}

// Unmarshal decodes a record produced by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*Status, error) {
	s := &Status{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldCode && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			s.Code = Code(int32(v))
			b = b[m:]
		case num == fieldMessage && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			s.Message = v
			b = b[m:]
		case num == fieldDetails && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			s.Details = v
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return s, nil
}

// EncodeHeader renders s for a text header (base64 of the wire bytes).
func EncodeHeader(s *Status) string {
	return base64.StdEncoding.EncodeToString(Marshal(s))
}

// DecodeHeader reverses EncodeHeader.
func DecodeHeader(v string) (*Status, error) {
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Unmarshal(raw)
}
