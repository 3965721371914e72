package cli

import (
	"context"
	"fmt"
)

// Categories prints the category set.
func (a *App) Categories(context.Context) error {
	for _, c := range a.svc.Categories() {
		fmt.Printf("%s  %s\n", c.ID, c.Name)
	}
	return nil
}

// AddCategory creates a category. Structural operations run online-only.
func (a *App) AddCategory(ctx context.Context) error {
	name, err := readLine(a.reader, "Category name:")
	if err != nil {
		return err
	}

	cat, err := a.svc.CreateCategory(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("created category %s (%s)\n", cat.ID, cat.Name)
	return nil
}

// RenameCategory renames a category.
func (a *App) RenameCategory(ctx context.Context) error {
	id, err := readLine(a.reader, "Category id:")
	if err != nil {
		return err
	}
	name, err := readLine(a.reader, "New name:")
	if err != nil {
		return err
	}

	if err := a.svc.RenameCategory(ctx, id, name); err != nil {
		return err
	}
	fmt.Printf("renamed category %s\n", id)
	return nil
}

// DeleteCategory deletes a category; its notes and quick actions move to
// the general category first.
func (a *App) DeleteCategory(ctx context.Context) error {
	id, err := readLine(a.reader, "Category id:")
	if err != nil {
		return err
	}

	if err := a.svc.DeleteCategory(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted category %s, records moved to general\n", id)
	return nil
}
