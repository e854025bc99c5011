// Package utils provides loose value conversions for module export results
// and arguments, which arrive as untyped values from interpreted modules and
// stub callers.
package utils
