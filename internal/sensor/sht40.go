package sensor

import (
	"fmt"
	"time"

	"github.com/sweeney/matrix-clock/internal/logic"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// SHT40 command and timing (no heater, high precision).
const (
	DefaultAddr         = 0x44
	cmdMeasureHighPrec  = 0xFD
	measureHighPrecWait = 10 * time.Millisecond
)

// SHT40 reads the sensor over I2C.
type SHT40 struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// NewSHT40 initialises the periph host drivers and opens the sensor at addr
// on busName (e.g. "1" or "/dev/i2c-1").
func NewSHT40(busName string, addr uint16) (*SHT40, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	return &SHT40{
		bus: bus,
		dev: &i2c.Dev{Bus: bus, Addr: addr},
	}, nil
}

// Read triggers a measurement, waits for it and decodes the response.
func (s *SHT40) Read() (logic.Reading, error) {
	if err := s.dev.Tx([]byte{cmdMeasureHighPrec}, nil); err != nil {
		return logic.Reading{}, fmt.Errorf("%w: write command: %v", ErrIO, err)
	}
	time.Sleep(measureHighPrecWait)

	var raw [FrameLen]byte
	if err := s.dev.Tx(nil, raw[:]); err != nil {
		return logic.Reading{}, fmt.Errorf("%w: read frame: %v", ErrIO, err)
	}
	if !CheckCRC(raw) {
		return logic.Reading{}, fmt.Errorf("%w: crc mismatch in % x", ErrIO, raw)
	}
	return Decode(raw), nil
}

// Close releases the I2C bus.
func (s *SHT40) Close() error {
	if s.bus == nil {
		return nil
	}
	if err := s.bus.Close(); err != nil {
		return fmt.Errorf("close i2c bus: %w", err)
	}
	return nil
}
