// Package corpus turns segmented recordings into the utterance dataset.
//
// The Assembler builds one Utterance per span, Resolve swaps per-recording
// speaker ordinals for corpus-global ids, and the Builder drives the whole
// run: parallel load and segmentation per recording, then one sequential pass
// in manifest order that assigns utterance ordinals and global speaker ids so
// the output does not depend on the worker count.
//
// Utterance ids have the form
//
//	<speaker_id>-<recording_id>-<utterance_id>-<start*100>-<end*100>
//
// with both times zero-padded to seven digits. Recompute must be called after
// changing any of those fields.
package corpus
