package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/postbox/internal/client/client"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Create(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	UploadURL(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
// Listing and reading posts works without a session; the server decides
// which calls need one. Errors returned by handlers are printed and the
// loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("postbox %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
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
				printlnFn("Available commands: (l)ist [page], show <id>, create, edit <id>, delete <id>, upload <file>, upload-url, logout, exit")
			} else {
				printlnFn("Available commands: register, login, (l)ist [page], show <id>, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "l", "list":
			cmdErr = a.List(ctx, args)

		case "show":
			cmdErr = a.Show(ctx, args)

		case "create":
			cmdErr = a.Create(ctx)

		case "edit":
			cmdErr = a.Edit(ctx, args)

		case "delete":
			cmdErr = a.Delete(ctx, args)

		case "upload-url":
			cmdErr = a.UploadURL(ctx)

		case "upload":
			cmdErr = a.Upload(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			reportError(cmdErr)
		}

		if err != nil {
			return
		}
	}
}

func reportError(err error) {
	var ve *client.ValidationError
	if errors.As(err, &ve) {
		printlnFn("Error: validation failed")
		for _, v := range ve.Violations {
			printlnFn(fmt.Sprintf("  %s: %s", v.Field, v.Description))
		}
		return
	}
	printlnFn("Error:", err)
}
