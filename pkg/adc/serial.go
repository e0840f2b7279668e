package adc

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/adcmon/adcmon/pkg/volt"
)

// DefaultBaudRate matches the kit firmware's PUART console.
const DefaultBaudRate = 115200

const responseTimeout = 2 * time.Second

// SerialADC drives the ADC console of a kit firmware over a serial port.
// The protocol is line oriented: one command line out, one response line
// back, first token of the response naming the payload.
//
//	adc init              -> ok
//	adc volt <channel>    -> mv <uint>
//	adc raw <channel> <n> -> raw <int>
//	adc cal               -> cal <gnd> <ref> <uvolts>
//
// Commands are serialized; the firmware handles one at a time.
type SerialADC struct {
	portName string
	baudRate int
	caps     Capabilities

	mu   sync.Mutex
	conn serial.Port
	r    *bufio.Reader
}

var _ ADC = (*SerialADC)(nil)

// OpenSerial opens the kit's console port. caps must describe the attached
// device; it is configuration, not something the protocol negotiates.
func OpenSerial(portName string, baudRate int, caps Capabilities) (*SerialADC, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	conn, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", portName)
	}
	if err := conn.SetReadTimeout(responseTimeout); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to set serial read timeout")
	}

	return &SerialADC{
		portName: portName,
		baudRate: baudRate,
		caps:     caps,
		conn:     conn,
		r:        bufio.NewReader(conn),
	}, nil
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list serial ports")
	}
	return ports, nil
}

// command sends one line and returns the response payload tokens after
// verifying the response prefix.
func (s *SerialADC) command(cmd string, wantPrefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logrus.Tracef("serial adc: > %s", cmd)

	if _, err := s.conn.Write([]byte(cmd + "\r\n")); err != nil {
		return nil, errors.Wrapf(err, "failed to send %q", cmd)
	}

	line, err := s.r.ReadString('\n')
	if err != nil {
		return nil, errors.Wrapf(err, "no response to %q", cmd)
	}
	line = strings.TrimSpace(line)
	logrus.Tracef("serial adc: < %s", line)

	fields, err := parseResponse(line, wantPrefix)
	if err != nil {
		return nil, errors.Wrapf(err, "bad response to %q", cmd)
	}
	return fields, nil
}

// parseResponse splits a response line and checks its leading token.
// "err <message>" responses surface the firmware's message.
func parseResponse(line string, wantPrefix string) ([]string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty response")
	}
	if fields[0] == "err" {
		return nil, errors.Errorf("firmware error: %s", strings.Join(fields[1:], " "))
	}
	if fields[0] != wantPrefix {
		return nil, errors.Errorf("expected %q response, got %q", wantPrefix, line)
	}
	return fields[1:], nil
}

func (s *SerialADC) Init() error {
	_, err := s.command("adc init", "ok")
	return err
}

func (s *SerialADC) ReadVoltage(ch Channel) (uint32, error) {
	fields, err := s.command(fmt.Sprintf("adc volt %s", ch), "mv")
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, errors.Errorf("malformed mv response: %v", fields)
	}
	v, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "malformed mv value")
	}
	return uint32(v), nil
}

func (s *SerialADC) ReadRawSample(ch Channel, numSamples int) (int16, error) {
	cmd := fmt.Sprintf("adc raw %s", ch)
	if s.caps.AveragedSampling {
		cmd = fmt.Sprintf("adc raw %s %d", ch, numSamples)
	}

	fields, err := s.command(cmd, "raw")
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, errors.Errorf("malformed raw response: %v", fields)
	}
	v, err := strconv.ParseInt(fields[0], 10, 16)
	if err != nil {
		return 0, errors.Wrap(err, "malformed raw value")
	}
	return int16(v), nil
}

func (s *SerialADC) Calibration() (volt.Calibration, error) {
	if !s.caps.FullConversionAPI {
		return volt.Calibration{}, ErrNoFullConversionAPI
	}

	fields, err := s.command("adc cal", "cal")
	if err != nil {
		return volt.Calibration{}, err
	}
	if len(fields) != 3 {
		return volt.Calibration{}, errors.Errorf("malformed cal response: %v", fields)
	}

	gnd, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return volt.Calibration{}, errors.Wrap(err, "malformed ground offset")
	}
	ref, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return volt.Calibration{}, errors.Wrap(err, "malformed reference reading")
	}
	uv, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return volt.Calibration{}, errors.Wrap(err, "malformed reference microvolts")
	}

	return volt.Calibration{
		GroundOffset:        int32(gnd),
		ReferenceReading:    int32(ref),
		ReferenceMicroVolts: uint32(uv),
	}, nil
}

func (s *SerialADC) Capabilities() Capabilities {
	return s.caps
}

func (s *SerialADC) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
