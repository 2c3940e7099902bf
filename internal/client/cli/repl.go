package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. Every command
// gets the words that followed it on the line.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Whoami(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Mine(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Image(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Repair(ctx context.Context, args []string) error
	Purge(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Quote(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, (l)ist [-author <id>], show, quote, stats, exit"
	helpLoggedIn  = "Available commands: add, edit, delete, (l)ist [-author <id>], mine, show, image, sync, repair, purge, profile, quote, whoami, stats, logout, exit"
)

// runREPL reads commands from r until EOF, "exit" or "quit".
//
// Commands share r with the prompts they print, so multi-line input for a
// command is consumed before the next command is read. Errors returned by
// commands are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("tips %s> ", statusFn()))

		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
		case "register":
			cmdErr = a.Register(ctx, args)
		case "login":
			cmdErr = a.Login(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx, args)
		case "whoami":
			cmdErr = a.Whoami(ctx, args)
		case "add":
			cmdErr = a.Add(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "delete", "rm":
			cmdErr = a.Delete(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "mine":
			cmdErr = a.Mine(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "image":
			cmdErr = a.Image(ctx, args)
		case "sync":
			cmdErr = a.Sync(ctx, args)
		case "repair":
			cmdErr = a.Repair(ctx, args)
		case "purge":
			cmdErr = a.Purge(ctx, args)
		case "profile":
			cmdErr = a.Profile(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx, args)
		case "quote":
			cmdErr = a.Quote(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
		}
	}
}
