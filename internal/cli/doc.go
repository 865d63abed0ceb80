// Package cli is the interactive accounts console.
//
// It drives the auth service from a read-eval-print loop: registration,
// login with an optional second factor, password changes, second-factor
// enrollment and recovery codes, and the administrator commands. The
// session returned by the service is held by App and handed back on every
// call; nothing else remembers who is logged in.
//
// The loop is started with App.Run, which blocks until the user exits or
// input ends.
package cli
