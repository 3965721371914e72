package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context) error
	Delete(ctx context.Context) error
	Clear(ctx context.Context) error
	Categories(ctx context.Context) error
	AddCategory(ctx context.Context) error
	RenameCategory(ctx context.Context) error
	DeleteCategory(ctx context.Context) error
	QuickActions(ctx context.Context) error
	AddQuickAction(ctx context.Context) error
	EditQuickAction(ctx context.Context) error
	DeleteQuickAction(ctx context.Context) error
	ShowSettings(ctx context.Context) error
	EditSettings(ctx context.Context) error
	Sync(ctx context.Context) error
	ShowStatus(ctx context.Context) error
}

const helpText = `Available commands:
  (l)ist, add, edit, del, clear         — notes
  cats, addcat, rencat, delcat          — categories
  qa, addqa, editqa, delqa              — quick actions
  settings, editsettings                — profile settings
  sync, status                          — synchronization
  exit | quit                           — leave the program`

// runREPL starts a simple read–eval–print loop for the jotkeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, context cancellation, or
// when the user types "exit" or "quit".
//
// Any errors returned by command handlers are printed here so the loop stays
// resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("jot> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "l", "list":
			err = a.List(ctx)
		case "add":
			err = a.Add(ctx)
		case "edit":
			err = a.Edit(ctx)
		case "del":
			err = a.Delete(ctx)
		case "clear":
			err = a.Clear(ctx)
		case "cats":
			err = a.Categories(ctx)
		case "addcat":
			err = a.AddCategory(ctx)
		case "rencat":
			err = a.RenameCategory(ctx)
		case "delcat":
			err = a.DeleteCategory(ctx)
		case "qa":
			err = a.QuickActions(ctx)
		case "addqa":
			err = a.AddQuickAction(ctx)
		case "editqa":
			err = a.EditQuickAction(ctx)
		case "delqa":
			err = a.DeleteQuickAction(ctx)
		case "settings":
			err = a.ShowSettings(ctx)
		case "editsettings":
			err = a.EditSettings(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "status":
			err = a.ShowStatus(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn(fmt.Sprintf("unknown command: %s (try 'help')", cmd))
		}
		if err != nil {
			printlnFn(fmt.Sprintf("error: %v", err))
		}
	}
}
