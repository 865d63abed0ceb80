package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/auth"
)

// printlnFn is a test seam for the loop's own output.
var printlnFn = fmt.Println

// execIface is the command surface the loop dispatches to. App satisfies it.
type execIface interface {
	state() auth.State
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Verify(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	LastChange(ctx context.Context) error
	Enroll(ctx context.Context) error
	Disable(ctx context.Context) error
	Regenerate(ctx context.Context) error
	Codes(ctx context.Context) error
	Profile(ctx context.Context) error
	List(ctx context.Context) error
	Delete(ctx context.Context) error
}

const (
	helpGuest   = "Available commands: register, login, exit"
	helpPending = "Available commands: verify, logout, exit"
	helpMember  = "Available commands: passwd, lastchange, enroll, disable, regen, codes, profile, list, delete, logout, exit"
)

// runREPL reads commands line by line and dispatches them to a. Command
// errors are printed and the loop carries on. It returns on EOF or when the
// user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("acct %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var cmdErr error
		switch cmd := parts[0]; cmd {
		case "help":
			switch a.state() {
			case auth.FullyAuthenticated:
				printlnFn(helpMember)
			case auth.AwaitingSecondFactor:
				printlnFn(helpPending)
			default:
				printlnFn(helpGuest)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "verify":
			cmdErr = a.Verify(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "lastchange":
			cmdErr = a.LastChange(ctx)
		case "enroll":
			cmdErr = a.Enroll(ctx)
		case "disable":
			cmdErr = a.Disable(ctx)
		case "regen":
			cmdErr = a.Regenerate(ctx)
		case "codes":
			cmdErr = a.Codes(ctx)
		case "profile":
			cmdErr = a.Profile(ctx)
		case "l", "list":
			cmdErr = a.List(ctx)
		case "delete":
			cmdErr = a.Delete(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
		if err != nil {
			return
		}
	}
}
