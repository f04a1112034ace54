package protocol

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// MaxFrameSize bounds a single inbound frame.
const MaxFrameSize = 16 << 10

// FrameType identifies the type of frame.
type FrameType string

const (
	FrameIntent  FrameType = "intent"  // Client → Server
	FramePatches FrameType = "patches" // Server → Client
	FrameError   FrameType = "error"   // Server → Client
)

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
	ErrMissingPayload   = errors.New("protocol: frame payload missing")
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame is the envelope for every message.
type Frame struct {
	Type    FrameType     `json:"type"`
	Intent  *Intent       `json:"intent,omitempty"`
	Patches *PatchesFrame `json:"patches,omitempty"`
	Error   *ErrorMessage `json:"error,omitempty"`
}

// EncodeFrame serializes a frame.
func EncodeFrame(f *Frame) ([]byte, error) {
	return codec.Marshal(f)
}

// EncodePatches wraps a patch batch in a frame and serializes it.
func EncodePatches(pf *PatchesFrame) ([]byte, error) {
	return EncodeFrame(&Frame{Type: FramePatches, Patches: pf})
}

// EncodeError wraps an error message in a frame and serializes it.
func EncodeError(em *ErrorMessage) ([]byte, error) {
	return EncodeFrame(&Frame{Type: FrameError, Error: em})
}

// DecodeFrame parses and validates a frame.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	var f Frame
	if err := codec.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("protocol: decode frame: %w", err)
	}
	switch f.Type {
	case FrameIntent:
		if f.Intent == nil {
			return nil, ErrMissingPayload
		}
	case FramePatches:
		if f.Patches == nil {
			return nil, ErrMissingPayload
		}
	case FrameError:
		if f.Error == nil {
			return nil, ErrMissingPayload
		}
	default:
		return nil, ErrInvalidFrameType
	}
	return &f, nil
}
