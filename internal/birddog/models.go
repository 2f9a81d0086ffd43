package birddog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// OperationMode is the device's fundamental signal direction.
type OperationMode int

const (
	// OperationModeEncode encodes local video to NDI
	OperationModeEncode OperationMode = iota
	// OperationModeDecode decodes an NDI stream to local video output
	OperationModeDecode
)

// String returns the device wire name for the mode ("encode" or "decode").
func (m OperationMode) String() string {
	switch m {
	case OperationModeEncode:
		return "encode"
	case OperationModeDecode:
		return "decode"
	default:
		return fmt.Sprintf("OperationMode(%d)", int(m))
	}
}

// ParseOperationMode converts a device wire name to an OperationMode.
func ParseOperationMode(name string) (OperationMode, error) {
	switch name {
	case "encode":
		return OperationModeEncode, nil
	case "decode":
		return OperationModeDecode, nil
	default:
		return 0, NewValidationError(fmt.Sprintf("unknown operation mode %q", name))
	}
}

// VideoOutput selects the physical/logical video output.
//
// Only SDI and HDMI are settable targets. LowLatency and NormalMode show up
// in device state but are undocumented, so they are kept round-trippable
// without being accepted as write targets.
type VideoOutput int

const (
	VideoOutputSDI VideoOutput = iota
	VideoOutputHDMI
	VideoOutputLowLatency
	VideoOutputNormalMode
)

// String returns the device wire name for the output.
func (v VideoOutput) String() string {
	switch v {
	case VideoOutputSDI:
		return "sdi"
	case VideoOutputHDMI:
		return "hdmi"
	case VideoOutputLowLatency:
		return "LowLatency"
	case VideoOutputNormalMode:
		return "NormalMode"
	default:
		return fmt.Sprintf("VideoOutput(%d)", int(v))
	}
}

// IsSettable reports whether the output can be used as a write target.
func (v VideoOutput) IsSettable() bool {
	return v == VideoOutputSDI || v == VideoOutputHDMI
}

// ParseVideoOutput converts a device wire name to a VideoOutput.
func ParseVideoOutput(name string) (VideoOutput, error) {
	switch name {
	case "sdi":
		return VideoOutputSDI, nil
	case "hdmi":
		return VideoOutputHDMI, nil
	case "LowLatency":
		return VideoOutputLowLatency, nil
	case "NormalMode":
		return VideoOutputNormalMode, nil
	default:
		return 0, NewValidationError(fmt.Sprintf("unknown video output %q", name))
	}
}

// AudioOutput selects the source routed to the analog audio output.
type AudioOutput int

const (
	// AudioOutputDecodeMain routes the main NDI audio stream
	AudioOutputDecodeMain AudioOutput = iota
	// AudioOutputDecodeComms routes comms (intercom over NDI)
	AudioOutputDecodeComms
	// AudioOutputDecodeLoop loops out from the SDI or HDMI input
	AudioOutputDecodeLoop
)

// String returns the device wire name for the audio output.
func (a AudioOutput) String() string {
	switch a {
	case AudioOutputDecodeMain:
		return "DecodeMain"
	case AudioOutputDecodeComms:
		return "DecodeComms"
	case AudioOutputDecodeLoop:
		return "DecodeLoop"
	default:
		return fmt.Sprintf("AudioOutput(%d)", int(a))
	}
}

// ParseAudioOutput converts a device wire name to an AudioOutput.
func ParseAudioOutput(name string) (AudioOutput, error) {
	switch name {
	case "DecodeMain":
		return AudioOutputDecodeMain, nil
	case "DecodeComms":
		return AudioOutputDecodeComms, nil
	case "DecodeLoop":
		return AudioOutputDecodeLoop, nil
	default:
		return 0, NewValidationError(fmt.Sprintf("unknown audio output %q", name))
	}
}

// AudioOutputSetup is the analog audio configuration.
//
// Gains are 0-100 on the device, but the device is authoritative and no range
// check is applied client-side.
type AudioOutputSetup struct {
	InputGain    int         // Device field AnalogAudioInGain
	OutputGain   int         // Device field AnalogAudioOutGain
	OutputSelect AudioOutput // Device field AnalogAudiooutputselect
}

// ParseAudioOutputSetup decodes the analogaudiosetup REST payload.
// The device wraps gain values in JSON strings inconsistently, so both
// `"50"` and `50` are accepted.
func ParseAudioOutputSetup(data []byte) (AudioOutputSetup, error) {
	if !gjson.ValidBytes(data) {
		return AudioOutputSetup{}, NewDecodeError("analog audio setup is not valid JSON", nil)
	}
	return audioSetupFromJSON(gjson.ParseBytes(data))
}

func audioSetupFromJSON(res gjson.Result) (AudioOutputSetup, error) {
	inGain, err := gainField(res, "AnalogAudioInGain")
	if err != nil {
		return AudioOutputSetup{}, err
	}
	outGain, err := gainField(res, "AnalogAudioOutGain")
	if err != nil {
		return AudioOutputSetup{}, err
	}
	sel := res.Get("AnalogAudiooutputselect")
	if !sel.Exists() {
		return AudioOutputSetup{}, NewDecodeError(`analog audio setup missing "AnalogAudiooutputselect"`, nil)
	}
	output, err := ParseAudioOutput(sel.String())
	if err != nil {
		return AudioOutputSetup{}, NewDecodeError(fmt.Sprintf("analog audio setup: %v", err), err)
	}
	return AudioOutputSetup{
		InputGain:    inGain,
		OutputGain:   outGain,
		OutputSelect: output,
	}, nil
}

func gainField(res gjson.Result, key string) (int, error) {
	field := res.Get(key)
	if !field.Exists() {
		return 0, NewDecodeError(fmt.Sprintf("analog audio setup missing %q", key), nil)
	}
	gain, err := strconv.Atoi(strings.TrimSpace(field.String()))
	if err != nil {
		return 0, NewDecodeError(fmt.Sprintf("analog audio setup field %q is not an integer: %q", key, field.String()), err)
	}
	return gain, nil
}

// String returns a human-readable summary of the audio configuration.
func (a AudioOutputSetup) String() string {
	return fmt.Sprintf("input gain %d, output gain %d, output %s", a.InputGain, a.OutputGain, a.OutputSelect)
}

// DeviceSettings is a snapshot of the device state scraped from the web
// interface, combined with the REST-sourced audio setup. It is never cached
// across operations: every read fetches a fresh snapshot.
type DeviceSettings struct {
	OperationMode OperationMode
	VideoOutput   VideoOutput
	AudioSetup    AudioOutputSetup
}

// ToFormData serializes the full settings to the device's videoset form
// field set. The device's configuration form is all-or-nothing: every write
// must carry all five fields, so there is no partial encoding.
func (s DeviceSettings) ToFormData() url.Values {
	data := url.Values{}
	data.Set("mode", s.OperationMode.String())
	data.Set("vid12g_loop_if", s.VideoOutput.String())
	data.Set("AnalogAudioInGain", strconv.Itoa(s.AudioSetup.InputGain))
	data.Set("AnalogAudioOutGain", strconv.Itoa(s.AudioSetup.OutputGain))
	data.Set("AnalogAudiooutputselect", s.AudioSetup.OutputSelect.String())
	return data
}

// NdiSource is an NDI source as reported by the device. Sources are
// ephemeral: each listing rebuilds them, and the active source is matched by
// name, not identity.
type NdiSource struct {
	Name      string // NDI source name (required)
	Address   string // Source address, empty if unknown
	Index     int    // Position in the most recent listing, -1 if not from a listing
	IsCurrent bool   // Whether this is the source the device is connected to
}
