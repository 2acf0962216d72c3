package elm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"elmdiag/pkg/log"

	"github.com/tarm/serial"
	"go.uber.org/zap"
)

const DefaultDelay = 100 * time.Millisecond

const (
	CommandReset           = "ATZ"
	CommandEchoOff         = "ATE0"
	CommandLineFeedsOff    = "ATL0"
	CommandHeadersOff      = "ATH0"
	CommandSetProtocolAuto = "ATSP0"

	CR = "\r"
)

const openRetries = 3

// SerialTransport talks to an ELM327 adapter over a serial device.
type SerialTransport struct {
	portName string
	baud     int
	timeout  time.Duration
	port     io.ReadWriteCloser
}

// NewSerial creates a transport for the given device. Connect must be
// called before use.
func NewSerial(portName string, baud int) *SerialTransport {
	return &SerialTransport{
		portName: portName,
		baud:     baud,
		timeout:  DefaultTimeout,
	}
}

// SetTimeout sets the receive deadline applied to all subsequent reads.
func (s *SerialTransport) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Connect opens the serial device and runs the ELM327 init sequence.
func (s *SerialTransport) Connect(ctx context.Context) error {
	cfg := &serial.Config{
		Name:        s.portName,
		Baud:        s.baud,
		ReadTimeout: 100 * time.Millisecond,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	}

	var p *serial.Port
	var err error
	for i := 0; i < openRetries; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		p, err = serial.OpenPort(cfg)
		if err == nil {
			break
		}
		log.Warn("failed to open port, retrying...", zap.Error(err), zap.Int("attempt", i+1))
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s after %d attempts: %v", s.portName, openRetries, err)
	}
	s.port = p

	log.Info("port opened", zap.String("port", s.portName), zap.Int("baud", s.baud))
	if err := s.initELM327(); err != nil {
		s.port.Close()
		s.port = nil
		return fmt.Errorf("ELM327 initialization failed: %v", err)
	}
	log.Info("ELM327 initialization completed")

	return nil
}

// initELM327 resets the adapter and puts it into a known state: echo,
// linefeeds and headers off, protocol auto-detect.
func (s *SerialTransport) initELM327() error {
	s.Flush()

	if err := s.writeCommand(CommandReset); err != nil {
		return fmt.Errorf("reset failed: %v", err)
	}
	// The device takes a while to come back after ATZ.
	time.Sleep(1500 * time.Millisecond)

	resp, err := s.readResponse()
	if err != nil {
		return fmt.Errorf("no response to reset: %v", err)
	}
	log.Debug("reset response", zap.String("response", resp))

	commands := []string{
		CommandEchoOff,
		CommandLineFeedsOff,
		CommandHeadersOff,
		CommandSetProtocolAuto,
	}
	for _, cmd := range commands {
		if err := s.writeCommand(cmd); err != nil {
			return fmt.Errorf("command %s failed: %v", cmd, err)
		}
		resp, err := s.readResponse()
		if err != nil {
			return fmt.Errorf("command %s got no response: %v", cmd, err)
		}
		log.Debug("init command", zap.String("command", cmd), zap.String("response", resp))
		time.Sleep(DefaultDelay)
	}

	return nil
}

// Send dispatches one Mode 01 request for the given PID.
func (s *SerialTransport) Send(mode, pid uint8) error {
	if s.port == nil {
		return fmt.Errorf("%w: port is not open", ErrSend)
	}
	cmd := fmt.Sprintf("%02X%02X", mode, pid)
	log.Debug("sending request", zap.String("command", cmd))
	if err := s.writeCommand(cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}

// Receive reads the adapter's reply to the last request and extracts
// the response bytes.
func (s *SerialTransport) Receive() (*Message, error) {
	line, err := s.readResponse()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceive, err)
	}
	log.Debug("received", zap.String("response", line))
	msg, ok := parseResponse(line)
	if !ok {
		return nil, fmt.Errorf("%w: no decodeable data in %q", ErrReceive, line)
	}
	return msg, nil
}

// Flush drains any pending bytes so one command's residue never leaks
// into the next query.
func (s *SerialTransport) Flush() {
	if s.port == nil {
		return
	}
	buf := make([]byte, 256)
	for {
		n, err := s.port.Read(buf)
		if err != nil || n == 0 {
			break
		}
		log.Debug("flushed pending data", zap.Int("bytes", n))
	}
}

func (s *SerialTransport) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *SerialTransport) writeCommand(cmd string) error {
	full := cmd + CR
	n, err := s.port.Write([]byte(full))
	if err != nil {
		return err
	}
	if n != len(full) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(full))
	}
	return nil
}

// readResponse collects bytes until the ELM327 prompt '>' is seen. The
// prompt is excluded. Deadline expiry without the prompt is an error:
// whatever partial bytes arrived belong to an incomplete frame and must
// not be decoded.
func (s *SerialTransport) readResponse() (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	deadline := time.Now().Add(s.timeout)

	for time.Now().Before(deadline) {
		n, err := s.port.Read(buf)
		if err != nil {
			// The port's own ReadTimeout surfaces as EOF; keep waiting
			// until our deadline.
			if err == io.EOF {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return "", err
		}
		if n == 0 {
			continue
		}

		b := buf[0]
		if b == '>' {
			return strings.TrimSpace(sb.String()), nil
		}
		// Drop control characters except CR/LF.
		if b >= 32 && b <= 126 || b == '\r' || b == '\n' {
			sb.WriteByte(b)
		}
	}

	return "", fmt.Errorf("read timeout after %v", s.timeout)
}

// parseResponse extracts the response bytes from an adapter reply like
// "41 0C 1A 2C". Status lines ("SEARCHING...", "NO DATA", errors) are
// rejected; tokens before the 41 echo are skipped.
func parseResponse(line string) (*Message, bool) {
	up := strings.ToUpper(line)
	if strings.Contains(up, "NO DATA") || strings.Contains(up, "ERROR") ||
		strings.Contains(up, "UNABLE TO CONNECT") {
		return nil, false
	}

	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		if !strings.EqualFold(parts[i], "41") {
			continue
		}
		data := make([]byte, 0, len(parts)-i)
		for j := i; j < len(parts); j++ {
			b, err := parseHexByte(parts[j])
			if err != nil {
				break
			}
			data = append(data, b)
		}
		if len(data) >= 2 {
			return NewMessage(data), true
		}
	}
	return nil, false
}

func parseHexByte(s string) (byte, error) {
	var v byte
	if _, err := fmt.Sscanf(s, "%02X", &v); err != nil {
		if _, err2 := fmt.Sscanf(s, "%02x", &v); err2 != nil {
			return 0, err
		}
	}
	return v, nil
}
