package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/jonas747/ogg"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// ErrEncodingFailed is returned when the encode pipeline fails
var ErrEncodingFailed = errors.New("audio encoding failed")

// opusFrameInterval is the playback duration of one Opus frame
const opusFrameInterval = 20 * time.Millisecond

// Encoder produces Discord-ready Opus frames from a source URL by
// piping yt-dlp into ffmpeg. Downloading through yt-dlp avoids the 403
// responses YouTube returns when ffmpeg fetches stream URLs directly.
type Encoder struct {
	logger *logger.Logger
}

// NewEncoder creates an encoder
func NewEncoder(log *logger.Logger) *Encoder {
	return &Encoder{logger: log}
}

// EncodeOptions contains options for encoding
type EncodeOptions struct {
	Volume      int    // 0-100
	Bitrate     int    // kbps
	Application string // audio, voip, or lowdelay
	BufferSize  int    // frame channel capacity
}

// DefaultEncodeOptions returns the default encoding options
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Volume:      100,
		Bitrate:     128,
		Application: "audio",
		BufferSize:  1024,
	}
}

// EncodeStream starts the encode pipeline for sourceURL and returns a
// frame channel and an error channel. The frame channel closes when
// the stream ends; a pipeline failure is reported on the error channel.
// Closing stop aborts the pipeline even when the consumer no longer
// drains frames, so the subprocesses die promptly on skip.
func (e *Encoder) EncodeStream(sourceURL string, options *EncodeOptions, stop <-chan struct{}) (<-chan []byte, <-chan error, error) {
	if options == nil {
		options = DefaultEncodeOptions()
	}

	frameChannel := make(chan []byte, options.BufferSize)
	errorChannel := make(chan error, 1)

	go e.encodePipeline(sourceURL, options, frameChannel, errorChannel, stop)

	return frameChannel, errorChannel, nil
}

func (e *Encoder) encodePipeline(sourceURL string, options *EncodeOptions, frameChannel chan []byte, errorChannel chan error, stop <-chan struct{}) {
	defer close(frameChannel)
	defer close(errorChannel)

	ytDlpCmd := exec.Command("yt-dlp",
		"-f", "bestaudio/best",
		"-o", "-",
		"--no-playlist",
		"--no-check-certificate",
		"--geo-bypass",
		"--quiet",
		"--no-warnings",
		sourceURL,
	)

	ytDlpStdout, err := ytDlpCmd.StdoutPipe()
	if err != nil {
		errorChannel <- fmt.Errorf("%w: yt-dlp stdout: %v", ErrEncodingFailed, err)
		return
	}
	ytDlpStderr, err := ytDlpCmd.StderrPipe()
	if err != nil {
		errorChannel <- fmt.Errorf("%w: yt-dlp stderr: %v", ErrEncodingFailed, err)
		return
	}
	go e.drainStderr("yt-dlp", ytDlpStderr)

	volumeFilter := fmt.Sprintf("volume=%.2f", float64(options.Volume)/100.0)

	ffmpegCmd := exec.Command("ffmpeg",
		"-i", "pipe:0",
		"-map", "0:a",
		"-af", volumeFilter,
		"-acodec", "libopus",
		"-f", "ogg",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", fmt.Sprintf("%d", options.Bitrate*1000),
		"-application", options.Application,
		"-frame_duration", "20",
		"-loglevel", "error",
		"pipe:1",
	)
	ffmpegCmd.Stdin = ytDlpStdout

	ffmpegStdout, err := ffmpegCmd.StdoutPipe()
	if err != nil {
		errorChannel <- fmt.Errorf("%w: ffmpeg stdout: %v", ErrEncodingFailed, err)
		return
	}
	ffmpegStderr, err := ffmpegCmd.StderrPipe()
	if err != nil {
		errorChannel <- fmt.Errorf("%w: ffmpeg stderr: %v", ErrEncodingFailed, err)
		return
	}
	go e.drainStderr("ffmpeg", ffmpegStderr)

	if err := ytDlpCmd.Start(); err != nil {
		errorChannel <- fmt.Errorf("%w: start yt-dlp: %v", ErrEncodingFailed, err)
		return
	}
	if err := ffmpegCmd.Start(); err != nil {
		ytDlpCmd.Process.Kill()
		errorChannel <- fmt.Errorf("%w: start ffmpeg: %v", ErrEncodingFailed, err)
		return
	}

	defer func() {
		if ytDlpCmd.Process != nil {
			ytDlpCmd.Process.Kill()
			ytDlpCmd.Wait()
		}
		if ffmpegCmd.Process != nil {
			ffmpegCmd.Process.Kill()
			ffmpegCmd.Wait()
		}
	}()

	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(ffmpegStdout))

	frameCount := 0
	startTime := time.Now()

	// The first two OGG packets are the Opus header and comment metadata
	skipPackets := 2

	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if err == io.EOF {
				e.logger.WithField("frames", frameCount).Debug("Encoding completed")
				return
			}
			if frameCount > 0 {
				// Mid-stream decode errors after real frames mean the
				// source ended; treat as completion, not failure.
				e.logger.WithError(err).WithField("frames", frameCount).Warn("Encoding ended early")
				return
			}
			errorChannel <- fmt.Errorf("%w: %v", ErrEncodingFailed, err)
			return
		}

		if skipPackets > 0 {
			skipPackets--
			continue
		}

		if len(packet) == 0 {
			continue
		}

		frameCount++

		// Throttle to playback rate so the buffer never runs far ahead
		expectedTime := startTime.Add(time.Duration(frameCount) * opusFrameInterval)
		if now := time.Now(); now.Before(expectedTime) {
			time.Sleep(expectedTime.Sub(now))
		}

		if !sendFrame(frameChannel, packet, stop) {
			e.logger.WithField("frames", frameCount).Debug("Encoding stopped")
			return
		}
	}
}

// sendFrame delivers one frame unless stop closes first. A stopped
// consumer must not leave the pipeline blocked on a full buffer.
func sendFrame(frameChannel chan<- []byte, packet []byte, stop <-chan struct{}) bool {
	select {
	case frameChannel <- packet:
		return true
	case <-stop:
		return false
	}
}

func (e *Encoder) drainStderr(name string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		e.logger.WithField(name, scanner.Text()).Debug("Encoder subprocess output")
	}
}
