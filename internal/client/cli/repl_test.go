package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeExec struct {
	calls []string
	errOn string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	if name == f.errOn {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeExec) List(ctx context.Context) error       { return f.record("list") }
func (f *fakeExec) Add(ctx context.Context) error        { return f.record("add") }
func (f *fakeExec) Edit(ctx context.Context) error       { return f.record("edit") }
func (f *fakeExec) Delete(ctx context.Context) error     { return f.record("del") }
func (f *fakeExec) Clear(ctx context.Context) error      { return f.record("clear") }
func (f *fakeExec) Categories(ctx context.Context) error { return f.record("cats") }
func (f *fakeExec) AddCategory(ctx context.Context) error {
	return f.record("addcat")
}
func (f *fakeExec) RenameCategory(ctx context.Context) error {
	return f.record("rencat")
}
func (f *fakeExec) DeleteCategory(ctx context.Context) error {
	return f.record("delcat")
}
func (f *fakeExec) QuickActions(ctx context.Context) error { return f.record("qa") }
func (f *fakeExec) AddQuickAction(ctx context.Context) error {
	return f.record("addqa")
}
func (f *fakeExec) EditQuickAction(ctx context.Context) error {
	return f.record("editqa")
}
func (f *fakeExec) DeleteQuickAction(ctx context.Context) error {
	return f.record("delqa")
}
func (f *fakeExec) ShowSettings(ctx context.Context) error { return f.record("settings") }
func (f *fakeExec) EditSettings(ctx context.Context) error {
	return f.record("editsettings")
}
func (f *fakeExec) Sync(ctx context.Context) error       { return f.record("sync") }
func (f *fakeExec) ShowStatus(ctx context.Context) error { return f.record("status") }

func TestRunREPL_DispatchesCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"list",
		"add",
		"cats",
		"qa",
		"sync",
		"status",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "online" }, sc)

	wantOrder := []string{"list", "add", "cats", "qa", "sync", "status"}
	if len(exec.calls) != len(wantOrder) {
		t.Fatalf("calls mismatch: got %v, want %v", exec.calls, wantOrder)
	}
	for i, c := range exec.calls {
		if c != wantOrder[i] {
			t.Fatalf("commands order mismatch: got %v, want %v", exec.calls, wantOrder)
		}
	}
}

func TestRunREPL_ShortAliasAndQuit(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("l\n\nquit\nadd\n")
	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 1 || exec.calls[0] != "list" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_HandlerErrorKeepsLoop(t *testing.T) {
	var printed []string
	origPrint := printlnFn
	printlnFn = func(args ...any) (int, error) {
		for _, a := range args {
			if s, ok := a.(string); ok {
				printed = append(printed, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("sync\nlist\nexit\n")
	exec := &fakeExec{errOn: "sync"}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 2 || exec.calls[1] != "list" {
		t.Fatalf("loop did not survive handler error: %v", exec.calls)
	}
	found := false
	for _, p := range printed {
		if strings.Contains(p, "boom") {
			found = true
		}
	}
	if !found {
		t.Fatalf("handler error was not reported: %v", printed)
	}
}
