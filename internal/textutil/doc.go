// Package textutil provides small text helpers for filename sanitization and
// display truncation.
package textutil
