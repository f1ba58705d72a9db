// Package cli implements the shelfd command-line interface.
package cli
