package motor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fornellas/slogxt/log"
	"go.bug.st/serial"
)

var ErrTimeout = errors.New("timeout waiting for status packet")

// Bus is what a Streamer needs from the motors.
type Bus interface {
	EnableTorque(ctx context.Context) error
	DisableTorque(ctx context.Context) error
	WritePositions(ctx context.Context, positions [4]uint32) error
	ReadPositions(ctx context.Context) ([4]uint32, error)
}

type ControllerOptions struct {
	BaudRate int
	// ResponseTimeout bounds the wait for each status packet.
	ResponseTimeout time.Duration
}

var DefaultControllerOptions = ControllerOptions{
	BaudRate:        57600,
	ResponseTimeout: 500 * time.Millisecond,
}

// Controller talks to the 4 joint servos on a single Dynamixel bus.
type Controller struct {
	mu         sync.Mutex
	openPortFn func(context.Context, *serial.Mode) (serial.Port, error)
	ids        [4]byte
	options    ControllerOptions
	port       serial.Port
	rx         []byte
}

// NewController creates a new Controller. ids are the servo ids for joints 1 to 4.
func NewController(
	openPortFn func(context.Context, *serial.Mode) (serial.Port, error),
	ids [4]byte,
	options *ControllerOptions,
) *Controller {
	if options == nil {
		options = &DefaultControllerOptions
	}
	return &Controller{
		openPortFn: openPortFn,
		ids:        ids,
		options:    *options,
	}
}

// Connect opens the serial port. Disconnect must be called when the connection isn't needed
// anymore.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := log.MustLogger(ctx)

	mode := &serial.Mode{
		BaudRate: c.options.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	logger.Info("Opening port", "baud-rate", c.options.BaudRate, "ids", c.ids)
	port, err := c.openPortFn(ctx, mode)
	if err != nil {
		return fmt.Errorf("motor: serial port open error: %w", err)
	}

	// we need to set this to allow polling reads to support context cancellation / timeout
	if err := port.SetReadTimeout(20 * time.Millisecond); err != nil {
		closeErr := port.Close()
		if closeErr != nil {
			closeErr = fmt.Errorf("motor: serial port close error: %w", closeErr)
		}
		return errors.Join(fmt.Errorf("motor: error setting read timeout: %w", err), closeErr)
	}

	c.port = port
	c.rx = nil
	return nil
}

func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		return nil
	}
	log.MustLogger(ctx).Info("Closing port")
	err := c.port.Close()
	c.port = nil
	if err != nil {
		return fmt.Errorf("motor: serial port close error: %w", err)
	}
	return nil
}

func (c *Controller) send(packet Packet) error {
	if c.port == nil {
		return errors.New("motor: not connected")
	}
	// Leftovers from a timed out or garbled reply must not answer this instruction.
	c.rx = nil
	data := packet.Encode()
	n, err := c.port.Write(data)
	if err != nil {
		return fmt.Errorf("motor: write error: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("motor: short write: wrote %d bytes, expected %d", n, len(data))
	}
	return nil
}

func (c *Controller) receiveStatus(ctx context.Context, id byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.ResponseTimeout)
	defer cancel()

	buf := make([]byte, 64)
	for {
		packet, consumed, err := DecodePacket(c.rx)
		c.rx = c.rx[consumed:]
		if err != nil {
			if !errors.Is(err, ErrBadPacket) {
				return nil, fmt.Errorf("motor %d: %w", id, err)
			}
			log.MustLogger(ctx).Debug("Skipping garbled bytes", "id", id, "err", err)
			continue
		}
		if packet != nil {
			if packet.ID != id || packet.Instruction != InstructionStatus {
				// Echo of our own instruction on half duplex adapters, or a stale reply.
				continue
			}
			return packet.Status()
		}

		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("motor %d: %w", id, ErrTimeout)
			}
			return nil, fmt.Errorf("motor %d: %w", id, err)
		}
		n, err := c.port.Read(buf)
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, fmt.Errorf("motor %d: read error: %w", id, err)
		}
		c.rx = append(c.rx, buf[:n]...)
	}
}

func (c *Controller) transact(ctx context.Context, packet Packet) ([]byte, error) {
	if err := c.send(packet); err != nil {
		return nil, err
	}
	return c.receiveStatus(ctx, packet.ID)
}

// Ping checks that the motor with given id answers.
func (c *Controller) Ping(ctx context.Context, id byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.transact(ctx, Packet{ID: id, Instruction: InstructionPing})
	return err
}

func (c *Controller) setTorque(ctx context.Context, enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := byte(0)
	if enable {
		value = 1
	}
	for _, id := range c.ids {
		if _, err := c.transact(ctx, Packet{
			ID:          id,
			Instruction: InstructionWrite,
			Params:      writeParams(AddrTorqueEnable, []byte{value}),
		}); err != nil {
			return fmt.Errorf("torque %v: %w", enable, err)
		}
	}
	log.MustLogger(ctx).Debug("Torque", "enable", enable)
	return nil
}

func (c *Controller) EnableTorque(ctx context.Context) error {
	return c.setTorque(ctx, true)
}

func (c *Controller) DisableTorque(ctx context.Context) error {
	return c.setTorque(ctx, false)
}

// WritePositions sets the goal position of all joints in a single broadcast sync write. Motors do
// not reply to it.
func (c *Controller) WritePositions(ctx context.Context, positions [4]uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.send(Packet{
		ID:          BroadcastID,
		Instruction: InstructionSyncWrite,
		Params:      syncWriteParams(AddrGoalPosition, c.ids[:], positions[:]),
	})
}

// ReadPositions reads the present position of every joint.
func (c *Controller) ReadPositions(ctx context.Context) ([4]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var positions [4]uint32
	for i, id := range c.ids {
		data, err := c.transact(ctx, Packet{
			ID:          id,
			Instruction: InstructionRead,
			Params:      readParams(AddrPresentPosition, 4),
		})
		if err != nil {
			return positions, fmt.Errorf("read position: %w", err)
		}
		if len(data) != 4 {
			return positions, fmt.Errorf("read position: %w: motor %d: got %d bytes, expected 4", ErrBadPacket, id, len(data))
		}
		positions[i] = binary.LittleEndian.Uint32(data)
	}
	return positions, nil
}
