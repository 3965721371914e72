package cli

import (
	"context"
	"fmt"
	"time"

	syncsvc "github.com/ovasilenko/jotkeeper/internal/client/sync"
)

// describeOutcome turns a mutation outcome into a short user-facing hint.
func describeOutcome(o syncsvc.Outcome) string {
	switch o {
	case syncsvc.OutcomeRemote:
		return "synced"
	case syncsvc.OutcomePending:
		return "saved locally, will sync"
	default:
		return "saved locally"
	}
}

func formatClock(millis int64) string {
	if millis == 0 {
		return "never"
	}
	return time.UnixMilli(millis).Format("2006-01-02 15:04")
}

// List prints the live notes, newest first.
func (a *App) List(context.Context) error {
	notes := a.svc.Notes()
	if len(notes) == 0 {
		fmt.Println("no notes")
		return nil
	}
	for _, n := range notes {
		fmt.Printf("%s  [%s]  %s\n    %s\n", n.ID, n.CategoryID, formatClock(n.Timestamp), n.Content)
	}
	return nil
}

// Add creates a note from multiline input.
func (a *App) Add(ctx context.Context) error {
	content, err := readMultiline(a.reader, "Enter note text (empty line to finish):")
	if err != nil {
		return err
	}
	if content == "" {
		fmt.Println("nothing to add")
		return nil
	}

	n, outcome, err := a.svc.CreateNote(ctx, content)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s)\n", n.ID, describeOutcome(outcome))
	return nil
}

// Edit rewrites an existing note's content and category.
func (a *App) Edit(ctx context.Context) error {
	id, err := readLine(a.reader, "Note id:")
	if err != nil {
		return err
	}
	content, err := readMultiline(a.reader, "New text (empty line to finish):")
	if err != nil {
		return err
	}
	categoryID, err := readLine(a.reader, "Category id (empty for general):")
	if err != nil {
		return err
	}

	outcome, err := a.svc.UpdateNote(ctx, id, content, categoryID, 0)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s (%s)\n", id, describeOutcome(outcome))
	return nil
}

// Delete removes a note.
func (a *App) Delete(ctx context.Context) error {
	id, err := readLine(a.reader, "Note id:")
	if err != nil {
		return err
	}

	outcome, err := a.svc.DeleteNote(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %s (%s)\n", id, describeOutcome(outcome))
	return nil
}

// Clear discards all notes after confirmation.
func (a *App) Clear(ctx context.Context) error {
	if !readYesNo(a.reader, "Delete ALL notes?") {
		fmt.Println("cancelled")
		return nil
	}

	outcome, err := a.svc.ClearNotes(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("notes cleared (%s)\n", describeOutcome(outcome))
	return nil
}
