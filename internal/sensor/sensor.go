// Package sensor reads the Sensirion SHT40 temperature/humidity sensor.
package sensor

import (
	"errors"

	"github.com/sweeney/matrix-clock/internal/logic"
)

// ErrIO marks every failed sensor read. Callers test with errors.Is.
var ErrIO = errors.New("sensor i/o error")

// Reader reads one ambient sample.
type Reader interface {
	Read() (logic.Reading, error)
	Close() error
}

// FrameLen is the size of an SHT40 measurement response:
// T msb, T lsb, T crc, RH msb, RH lsb, RH crc.
const FrameLen = 6

// Decode converts a raw SHT40 frame to physical units. Humidity is clamped
// to [0, 100]. CRC bytes are ignored; see CheckCRC.
func Decode(raw [FrameLen]byte) logic.Reading {
	tTicks := float64(int(raw[0])*256 + int(raw[1]))
	rhTicks := float64(int(raw[3])*256 + int(raw[4]))

	t := -45 + 175*tTicks/65535
	rh := -6 + 125*rhTicks/65535
	if rh > 100 {
		rh = 100
	}
	if rh < 0 {
		rh = 0
	}
	return logic.Reading{TemperatureC: t, HumidityPct: rh}
}

// CRC8 computes the Sensirion checksum (polynomial 0x31, init 0xFF).
func CRC8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CheckCRC reports whether both words of raw carry a valid checksum.
func CheckCRC(raw [FrameLen]byte) bool {
	return CRC8(raw[0:2]) == raw[2] && CRC8(raw[3:5]) == raw[5]
}
