// conf/consts.go hard coded constants
package conf

const (
	SampleRate  = 44100 // Sample rate of captured audio in Hz
	BitDepth    = 16    // Bit depth of captured audio
	NumChannels = 1     // Number of channels of captured audio
	ChunkSize   = 1024  // Number of sample frames per capture chunk

	BytesPerSample = BitDepth / 8 // Bytes per sample frame for mono S16 audio

	// Low frequency band used by the spectral classifier, in Hz
	LowBandMinFreq = 20.0
	LowBandMaxFreq = 200.0
)
