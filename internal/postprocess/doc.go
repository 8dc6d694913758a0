// Package postprocess turns raw model output into readable Vietnamese text:
// artifact cleanup, NFC normalization, punctuation repair, and sentence
// capitalization. Every step is idempotent.
package postprocess
