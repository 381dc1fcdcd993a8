package myaudio

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/errors"
)

// chunkBytes is the wire size of one capture chunk.
const chunkBytes = conf.ChunkSize * conf.BytesPerSample * conf.NumChannels

// chunkDuration is the wall-clock span one chunk covers.
const chunkDuration = time.Duration(conf.ChunkSize) * time.Second / conf.SampleRate

// Chunk is a fixed-size block of raw PCM handed to the processing pipeline.
// Timestamp marks the start of the chunk, not its delivery time.
type Chunk struct {
	Seq       uint64
	Timestamp time.Time
	PCM       []byte
}

// ChunkSource produces a stream of audio chunks. Implementations own the
// underlying device or generator; Chunks is closed when the source stops,
// whether by request or by a device fault. After the channel closes, Err
// reports the fault, if any.
type ChunkSource interface {
	Start(ctx context.Context) error
	Chunks() <-chan Chunk
	Stop()
	Err() error
}

// AudioDeviceInfo holds the user-facing identity of a capture device.
type AudioDeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// ListAudioSources returns the capture devices visible to miniaudio.
func ListAudioSources() ([]AudioDeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioCapture).
			Build()
	}
	defer ctx.Uninit() //nolint:errcheck

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioCapture).
			Build()
	}

	devices := make([]AudioDeviceInfo, 0, len(infos))
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			decodedID = info.ID.String()
		}
		devices = append(devices, AudioDeviceInfo{Index: i, Name: info.Name(), ID: decodedID})
	}
	return devices, nil
}

// MalgoSource captures audio from a local device through miniaudio and
// delivers it as fixed-size chunks. Frames arriving faster than the consumer
// drains them are dropped whole chunks at a time; DroppedChunks reports the
// running total.
type MalgoSource struct {
	source  string
	debug   bool
	logger  *slog.Logger
	chunks  chan Chunk
	dropped atomic.Uint64

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	started  bool
	stopped  bool
	err      error

	// callback state, touched only from the miniaudio data thread
	pending []byte
	seq     uint64
}

// NewMalgoSource prepares a capture source for the named device. An empty
// source string selects the system default device.
func NewMalgoSource(settings *conf.AudioSettings, debug bool, logger *slog.Logger) *MalgoSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MalgoSource{
		source: settings.Source,
		debug:  debug,
		logger: logger.With("service", "capture"),
		chunks: make(chan Chunk, 32),
	}
}

// Chunks returns the chunk stream. It is closed once the source stops.
func (s *MalgoSource) Chunks() <-chan Chunk { return s.chunks }

// DroppedChunks returns the number of chunks discarded because the consumer
// could not keep up.
func (s *MalgoSource) DroppedChunks() uint64 { return s.dropped.Load() }

// Err returns the device fault that closed the chunk stream, or nil when the
// source stopped on request.
func (s *MalgoSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start opens the capture device and begins streaming. The context is only
// consulted for cancellation before the device starts; once running, use Stop.
func (s *MalgoSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.Newf("capture source already started").
			Component("myaudio").
			Category(errors.CategoryAudioCapture).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// if Linux set malgo.BackendAlsa, else pick the platform native backend
	var backend malgo.Backend
	switch runtime.GOOS {
	case "linux":
		backend = malgo.BackendAlsa
	case "windows":
		backend = malgo.BackendWasapi
	case "darwin":
		backend = malgo.BackendCoreaudio
	}

	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, func(message string) {
		if s.debug {
			s.logger.Debug("miniaudio", "message", strings.TrimSpace(message))
		}
	})
	if err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioCapture).
			Context("backend", fmt.Sprintf("%v", backend)).
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	var selectedName string
	if s.source != "" {
		infos, err := malgoCtx.Devices(malgo.Capture)
		if err != nil {
			malgoCtx.Uninit() //nolint:errcheck
			return errors.New(err).
				Component("myaudio").
				Category(errors.CategoryAudioCapture).
				Build()
		}
		selected, err := selectCaptureSource(s.source, infos)
		if err != nil {
			malgoCtx.Uninit() //nolint:errcheck
			return err
		}
		deviceConfig.Capture.DeviceID = selected.Pointer
		selectedName = selected.Name
	} else {
		selectedName = "default"
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: s.onReceiveFrames,
		Stop: s.onStopDevice,
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		malgoCtx.Uninit() //nolint:errcheck
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioCapture).
			Context("source", s.source).
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		malgoCtx.Uninit() //nolint:errcheck
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioCapture).
			Context("source", s.source).
			Build()
	}

	s.malgoCtx = malgoCtx
	s.device = device
	s.started = true
	s.logger.Info("listening on capture source", "device", selectedName)
	return nil
}

// Stop halts capture and closes the chunk stream. Safe to call more than once.
func (s *MalgoSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(nil)
}

func (s *MalgoSource) stopLocked(cause error) {
	if s.stopped {
		return
	}
	s.stopped = true
	s.err = cause
	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	if s.malgoCtx != nil {
		s.malgoCtx.Uninit() //nolint:errcheck
		s.malgoCtx = nil
	}
	close(s.chunks)
}

// onReceiveFrames runs on the miniaudio data thread. It slices the incoming
// frame buffer into fixed chunks and hands them off without blocking.
func (s *MalgoSource) onReceiveFrames(_, pSamples []byte, _ uint32) {
	s.pending = append(s.pending, pSamples...)
	for len(s.pending) >= chunkBytes {
		pcm := make([]byte, chunkBytes)
		copy(pcm, s.pending[:chunkBytes])
		s.pending = s.pending[chunkBytes:]

		chunk := Chunk{
			Seq:       s.seq,
			Timestamp: time.Now().Add(-chunkDuration),
			PCM:       pcm,
		}
		s.seq++

		select {
		case s.chunks <- chunk:
		default:
			if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
				s.logger.Warn("consumer lagging, dropping audio", "dropped_total", n)
			}
		}
	}
}

// onStopDevice fires when the device stops, including unexpected stalls such
// as an unplugged USB microphone. A stop not triggered by Stop is a fault.
func (s *MalgoSource) onStopDevice() {
	// Teardown must not run on the miniaudio stop callback thread.
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped {
			return
		}
		cause := errors.Newf("capture device stopped unexpectedly").
			Component("myaudio").
			Category(errors.CategoryAudioCapture).
			Context("source", s.source).
			Build()
		s.logger.Error("capture device stopped unexpectedly", "source", s.source)
		s.stopLocked(cause)
	}()
}

// captureSource holds the selected device identity for device init.
type captureSource struct {
	Name    string
	ID      string
	Pointer unsafe.Pointer
}

// selectCaptureSource picks the device matching the configured source name or ID.
func selectCaptureSource(audioSource string, infos []malgo.DeviceInfo) (captureSource, error) {
	for _, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		if matchesDeviceSettings(decodedID, info, audioSource) {
			return captureSource{
				Name:    info.Name(),
				ID:      decodedID,
				Pointer: info.ID.Pointer(),
			}, nil
		}
	}
	return captureSource{}, errors.Newf("no suitable capture source found for device setting %s", audioSource).
		Component("myaudio").
		Category(errors.CategoryAudioCapture).
		Build()
}

// matchesDeviceSettings checks if the device matches the configured source.
func matchesDeviceSettings(decodedID string, info malgo.DeviceInfo, audioSource string) bool {
	if runtime.GOOS == "windows" && audioSource == "sysdefault" {
		// On Windows there is no "sysdefault" device, use the default instead.
		return info.IsDefault == 1
	}
	return decodedID == audioSource || strings.Contains(info.Name(), audioSource)
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
