package cli

import (
	"context"
	"fmt"
)

// QuickActions prints the quick-action templates.
func (a *App) QuickActions(context.Context) error {
	actions := a.svc.QuickActions()
	if len(actions) == 0 {
		fmt.Println("no quick actions")
		return nil
	}
	for _, q := range actions {
		cat := q.CategoryID
		if cat == "" {
			cat = "-"
		}
		fmt.Printf("%s  [%s]  %s\n", q.ID, cat, q.Text)
	}
	return nil
}

// AddQuickAction creates a canned-text template.
func (a *App) AddQuickAction(ctx context.Context) error {
	text, err := readLine(a.reader, "Quick action text:")
	if err != nil {
		return err
	}
	categoryID, err := readLine(a.reader, "Category id (optional):")
	if err != nil {
		return err
	}

	q, outcome, err := a.svc.CreateQuickAction(ctx, text, categoryID)
	if err != nil {
		return err
	}
	fmt.Printf("created quick action %s (%s)\n", q.ID, describeOutcome(outcome))
	return nil
}

// EditQuickAction rewrites a quick action.
func (a *App) EditQuickAction(ctx context.Context) error {
	id, err := readLine(a.reader, "Quick action id:")
	if err != nil {
		return err
	}
	text, err := readLine(a.reader, "New text:")
	if err != nil {
		return err
	}
	categoryID, err := readLine(a.reader, "Category id (optional):")
	if err != nil {
		return err
	}

	outcome, err := a.svc.UpdateQuickAction(ctx, id, text, categoryID)
	if err != nil {
		return err
	}
	fmt.Printf("updated quick action %s (%s)\n", id, describeOutcome(outcome))
	return nil
}

// DeleteQuickAction removes a quick action.
func (a *App) DeleteQuickAction(ctx context.Context) error {
	id, err := readLine(a.reader, "Quick action id:")
	if err != nil {
		return err
	}

	outcome, err := a.svc.DeleteQuickAction(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("deleted quick action %s (%s)\n", id, describeOutcome(outcome))
	return nil
}
