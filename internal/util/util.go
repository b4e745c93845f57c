// Package util provides small helpers shared across the module.
package util
