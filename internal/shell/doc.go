// Package shell is the interactive front end of zkgit.
//
// Each line names a command (LOGIN, STATUS, PUSH, ...) which runs through the
// dispatcher exactly as a bridge request would. A few words are handled by
// the shell itself:
//
//	repo NAME [SIGNATURE]   select the current repository
//	port N                  restart the bridge on port N
//	help                    list commands
//	exit                    log out, erase the session and leave
package shell
