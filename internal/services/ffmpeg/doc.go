// Package ffmpeg converts source media into the mono 16-bit PCM WAV files the
// corpus refers to, and renders the equivalent pipe command for Kaldi's
// wav.scp.
package ffmpeg
