package dap

import (
	"errors"
	"fmt"
	"io"
)

// Deserialize reads a framed Sequence value from um and appends its rows to
// the row buffer. Every declared field is read for each row, in order, so s
// must have the shape that was transmitted (see Projected). Nested Sequence
// fields consume their own SOI ... EOS span.
func (s *Sequence) Deserialize(um UnMarshaller) error {
	for {
		marker, err := um.GetOpaque(1)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return newError(CodeProtocol, Path(s), "end-of-sequence marker expected but not found", err)
			}
			return newError(CodeProtocol, Path(s), "read marker", err)
		}
		if len(marker) != 1 {
			return newError(CodeProtocol, Path(s), fmt.Sprintf("marker has %d bytes", len(marker)), nil)
		}

		switch marker[0] {
		case EndOfSequence:
			s.readP = true
			return nil
		case StartOfInstance:
			row, err := s.deserializeRow(um)
			if err != nil {
				return err
			}
			s.appendRow(row)
		default:
			return newError(CodeProtocol, Path(s),
				fmt.Sprintf("unexpected marker 0x%02X (want SOI 0x%02X or EOS 0x%02X)",
					marker[0], StartOfInstance, EndOfSequence), nil)
		}
	}
}

func (s *Sequence) deserializeRow(um UnMarshaller) (Row, error) {
	row := make(Row, 0, len(s.vars))
	for _, v := range s.vars {
		var fresh Variable
		if cs, ok := v.(*Sequence); ok {
			fresh = cs.cloneShape()
		} else {
			fresh = v.Clone()
		}
		fresh.setParent(s)
		if err := fresh.Decode(um); err != nil {
			if IsProtocolError(err) {
				return nil, err
			}
			return nil, newError(CodeProtocol, Path(s), fmt.Sprintf("row %d field %q", len(s.values), v.Name()), err)
		}
		row = append(row, fresh)
	}
	return row, nil
}
