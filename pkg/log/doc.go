// Package log provides small named loggers for services and providers.
//
// Every logger is created through ForService(name) and renders the name as
// the line prefix, so output stays grep friendly:
//
//	INFO registry: index rebuilt
//
// Lines are written by github.com/charmbracelet/log. Debug output is gated
// either globally (SetGlobalDebug) or per service (EnableDebugFor /
// DisableDebugFor), which lets `--debug` be noisy while a single provider can
// be inspected on its own.
//
// Basic Usage
//
//	l := log.ForService("files")
//	l.Infof("indexed %d roots", n)
//	l.Debugf("walk took %s", elapsed) // printed only when debug is enabled
//
// Output Routing
//
// SetOutput changes the destination of every existing and future logger.
// Tests redirect output to a bytes.Buffer to assert on log contents.
//
// NOTE: The package name collides with the standard library "log" package and
// with charmbracelet/log. Alias one of them when both are needed.
package log
