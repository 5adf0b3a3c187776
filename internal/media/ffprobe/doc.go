// Package ffprobe wraps the JSON output of ffprobe for the audio checks the
// corpus tools need: stream layout, sample rate, channel count, duration.
package ffprobe
