// Package textutil holds small string helpers shared by the corpus packages:
// recording name derivation and filesystem-safe tokens.
package textutil
