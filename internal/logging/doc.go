// Package logger provides leveled, colored logging for zkgit.
//
// # Verbosity Levels
//
//   - --verbose: Shows info, success and error messages
//   - --debug: Shows all messages including debug details
//
// Warnings are always shown. Nothing in this package ever prints key
// material; callers log field names, never values.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Dispatching %s", name)
//
// The CLI creates one logger in the root PersistentPreRun and passes it to
// the dispatcher, the bridge and the sync protocol.
package logger
