package display

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/logic"
	"go.bug.st/serial"
)

// DefaultBaud is the matrix controller's line speed.
const DefaultBaud = 115200

// Serial drives a matrix controller attached to a serial port.
type Serial struct {
	port serial.Port
	name string
}

// OpenSerial opens portName at baud (8N1).
func OpenSerial(portName string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", portName, err)
	}
	return &Serial{port: port, name: portName}, nil
}

// Render writes the encoded frame to the port.
func (s *Serial) Render(text string, mode logic.Mode) {
	if _, err := s.port.Write(EncodeFrame(text, mode)); err != nil {
		log.Warn().Err(err).Str("port", s.name).Msg("serial render failed")
	}
}

// Close closes the port.
func (s *Serial) Close() error {
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("close serial %s: %w", s.name, err)
	}
	return nil
}
