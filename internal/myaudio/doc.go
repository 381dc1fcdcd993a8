// Package myaudio provides the audio primitives of the monitoring pipeline:
// device capture, the circular clip capture buffer, calibrated level
// measurement, wind noise filtering, spectral classification, and clip
// export. All PCM data is 16-bit little-endian mono at conf.SampleRate.
package myaudio
