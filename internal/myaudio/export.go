// export.go compressed clip export via ffmpeg with WAV retention fallback
package myaudio

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/errors"
)

// tempExt is the temporary file extension used while an export is in flight.
// The rename to the final name makes the export an atomic file operation.
const tempExt = ".temp"

// ExportClip encodes PCM data into the configured artifact format and writes
// it under the export path, returning the final artifact path. When the
// compressed encode fails the raw samples are retained as a WAV file instead
// and that path is returned together with the encode error, so a failed
// encoder never loses the clip.
func ExportClip(pcmData []byte, baseName string, settings *conf.AudioSettings) (string, error) {
	exportDir := conf.GetBasePath(settings.Export.Path)

	if settings.Export.Type == "wav" {
		wavPath := filepath.Join(exportDir, baseName+".wav")
		if err := SavePCMDataToWAV(wavPath, pcmData); err != nil {
			return "", errors.New(err).
				Component("myaudio").
				Category(errors.CategoryAudioEncode).
				Context("operation", "save_wav").
				Context("path", wavPath).
				Build()
		}
		return wavPath, nil
	}

	outputPath := filepath.Join(exportDir, baseName+"."+settings.Export.Type)
	if err := exportWithFFmpeg(pcmData, outputPath, settings); err != nil {
		encodeErr := errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioEncode).
			Context("operation", "ffmpeg_export").
			Context("path", outputPath).
			Build()

		// retain the raw audio rather than losing the clip
		wavPath := filepath.Join(exportDir, baseName+".wav")
		if wavErr := SavePCMDataToWAV(wavPath, pcmData); wavErr != nil {
			return "", errors.New(wavErr).
				Component("myaudio").
				Category(errors.CategoryAudioEncode).
				Context("operation", "fallback_wav").
				Context("encode_error", err.Error()).
				Build()
		}
		return wavPath, encodeErr
	}

	return outputPath, nil
}

// exportWithFFmpeg pipes raw PCM to ffmpeg and writes the encoded artifact
// to a temporary file which is renamed into place on success.
func exportWithFFmpeg(pcmData []byte, outputPath string, settings *conf.AudioSettings) error {
	if err := validateFFmpegPath(settings.FfmpegPath); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	tempFilePath := outputPath + tempExt

	cmd := exec.Command(settings.FfmpegPath, buildFFmpegArgs(tempFilePath, settings)...) //nolint:gosec // G204: ffmpeg path comes from validated configuration

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	if _, err := stdin.Write(pcmData); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PCM data to ffmpeg: %w", err)
	}
	if err := stdin.Close(); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to close ffmpeg stdin: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		_ = os.Remove(tempFilePath)
		return fmt.Errorf("ffmpeg failed: %w, output: %s", err, stderr.String())
	}

	if err := os.Rename(tempFilePath, outputPath); err != nil {
		return fmt.Errorf("failed to rename temporary export file: %w", err)
	}
	return nil
}

// buildFFmpegArgs builds the argument list for a fixed bitrate encode of raw
// mono S16 input read from stdin. The output format is passed explicitly
// because the temporary file's extension does not identify it.
func buildFFmpegArgs(tempFilePath string, settings *conf.AudioSettings) []string {
	return []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(conf.SampleRate),
		"-ac", strconv.Itoa(conf.NumChannels),
		"-i", "-",
		"-c:a", "libopus",
		"-b:a", settings.Export.Bitrate,
		"-f", "opus",
		"-y",
		tempFilePath,
	}
}

// validateFFmpegPath checks that the configured ffmpeg binary is resolvable.
func validateFFmpegPath(ffmpegPath string) error {
	if ffmpegPath == "" {
		return fmt.Errorf("ffmpeg path not configured")
	}
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %q: %w", ffmpegPath, err)
	}
	return nil
}
