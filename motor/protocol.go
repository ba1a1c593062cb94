// Package motor commands the arm's Dynamixel servos.
//
// Packets follow Dynamixel Protocol 2.0:
//
//	FF FF FD 00 | ID | LEN_L LEN_H | INST | PARAMS... | CRC_L CRC_H
//
// where LEN counts INST, PARAMS and CRC, and the CRC is CRC-16/BUYPASS over everything before
// it. See https://emanual.robotis.com/docs/en/dxl/protocol2/.
package motor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sigurn/crc16"
)

const (
	InstructionPing      byte = 0x01
	InstructionRead      byte = 0x02
	InstructionWrite     byte = 0x03
	InstructionStatus    byte = 0x55
	InstructionSyncWrite byte = 0x83

	BroadcastID byte = 0xFE
)

// X series control table.
const (
	AddrTorqueEnable    uint16 = 64
	AddrGoalPosition    uint16 = 116
	AddrPresentPosition uint16 = 132
)

var header = []byte{0xFF, 0xFF, 0xFD, 0x00}

// Header, ID and length.
const prefixLen = 7

// maxLength bounds LEN: larger values are line noise, not a packet.
const maxLength = 512

var ErrBadPacket = errors.New("bad packet")

// Dynamixel uses CRC-16/BUYPASS: polynomial 0x8005, init 0, not reflected.
var crcTable = crc16.MakeTable(crc16.CRC16_BUYPASS)

func checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// stuff inserts 0xFD after every FF FF FD so payloads never contain a header.
func stuff(data []byte) []byte {
	stuffed := make([]byte, 0, len(data))
	for _, b := range data {
		stuffed = append(stuffed, b)
		if n := len(stuffed); n >= 3 && stuffed[n-3] == 0xFF && stuffed[n-2] == 0xFF && stuffed[n-1] == 0xFD {
			stuffed = append(stuffed, 0xFD)
		}
	}
	return stuffed
}

func unstuff(data []byte) []byte {
	unstuffed := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		unstuffed = append(unstuffed, data[i])
		if n := len(unstuffed); n >= 3 && unstuffed[n-3] == 0xFF && unstuffed[n-2] == 0xFF && unstuffed[n-1] == 0xFD {
			if i+1 < len(data) && data[i+1] == 0xFD {
				i++
			}
		}
	}
	return unstuffed
}

// Packet is a decoded instruction or status packet.
type Packet struct {
	ID          byte
	Instruction byte
	Params      []byte
}

// Encode serializes the packet, stuffing and checksumming it.
func (p Packet) Encode() []byte {
	body := stuff(append([]byte{p.Instruction}, p.Params...))
	buf := make([]byte, 0, prefixLen+len(body)+2)
	buf = append(buf, header...)
	buf = append(buf, p.ID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(body)+2))
	buf = append(buf, body...)
	return binary.LittleEndian.AppendUint16(buf, checksum(buf))
}

// DecodePacket decodes the first packet in data. Bytes before a header are skipped. It returns
// the number of bytes consumed, or a nil packet and the number of bytes that can be discarded
// when data does not yet hold a full packet.
//
// A header with an impossible length or a failing CRC yields ErrBadPacket and consumes only up
// to the first header byte, so decoding resyncs on any packet that follows it.
func DecodePacket(data []byte) (*Packet, int, error) {
	start := bytes.Index(data, header)
	if start < 0 {
		// Keep a possible partial header.
		keep := min(len(data), len(header)-1)
		return nil, len(data) - keep, nil
	}
	data = data[start:]
	if len(data) < prefixLen {
		return nil, start, nil
	}
	length := int(binary.LittleEndian.Uint16(data[5:7]))
	if length < 3 || length > maxLength {
		return nil, start + 1, fmt.Errorf("%w: length %d out of range", ErrBadPacket, length)
	}
	total := prefixLen + length
	if len(data) < total {
		return nil, start, nil
	}
	crc := binary.LittleEndian.Uint16(data[total-2 : total])
	if expected := checksum(data[:total-2]); crc != expected {
		return nil, start + 1, fmt.Errorf("%w: crc 0x%04x, expected 0x%04x", ErrBadPacket, crc, expected)
	}
	body := unstuff(data[prefixLen : total-2])
	return &Packet{
		ID:          data[4],
		Instruction: body[0],
		Params:      body[1:],
	}, start + total, nil
}

var statusErrorNames = map[byte]string{
	0x01: "result fail",
	0x02: "instruction error",
	0x03: "crc error",
	0x04: "data range error",
	0x05: "data length error",
	0x06: "data limit error",
	0x07: "access error",
}

// StatusError is an error reported by a servo in its status packet.
type StatusError struct {
	ID   byte
	Code byte
	// Alert is set when the servo has a hardware error; its Hardware Error Status register tells
	// which.
	Alert bool
}

func (e *StatusError) Error() string {
	name, ok := statusErrorNames[e.Code]
	if !ok {
		name = fmt.Sprintf("error 0x%02x", e.Code)
	}
	if e.Alert {
		return fmt.Sprintf("motor %d: %s (hardware alert)", e.ID, name)
	}
	return fmt.Sprintf("motor %d: %s", e.ID, name)
}

// Status validates p as a status packet and returns its data.
func (p *Packet) Status() ([]byte, error) {
	if p.Instruction != InstructionStatus {
		return nil, fmt.Errorf("%w: motor %d: instruction 0x%02x is not status", ErrBadPacket, p.ID, p.Instruction)
	}
	if len(p.Params) < 1 {
		return nil, fmt.Errorf("%w: motor %d: status without error field", ErrBadPacket, p.ID)
	}
	errByte := p.Params[0]
	if errByte != 0 {
		return nil, &StatusError{ID: p.ID, Code: errByte & 0x7F, Alert: errByte&0x80 != 0}
	}
	return p.Params[1:], nil
}

func readParams(address, length uint16) []byte {
	params := binary.LittleEndian.AppendUint16(nil, address)
	return binary.LittleEndian.AppendUint16(params, length)
}

func writeParams(address uint16, data []byte) []byte {
	return append(binary.LittleEndian.AppendUint16(nil, address), data...)
}

// syncWriteParams writes the same 4 byte register on several motors at once.
func syncWriteParams(address uint16, ids []byte, values []uint32) []byte {
	if len(ids) != len(values) {
		panic(fmt.Sprintf("bug: %d ids for %d values", len(ids), len(values)))
	}
	params := readParams(address, 4)
	for i, id := range ids {
		params = append(params, id)
		params = binary.LittleEndian.AppendUint32(params, values[i])
	}
	return params
}
