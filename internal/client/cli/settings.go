package cli

import (
	"context"
	"fmt"
)

// ShowSettings prints the current profile settings.
func (a *App) ShowSettings(context.Context) error {
	s := a.svc.Settings()
	fmt.Printf("display name: %s\n", s.DisplayName)
	fmt.Printf("subtitle:     %s\n", s.Subtitle)
	fmt.Printf("theme:        %s\n", s.Theme)
	fmt.Printf("dark mode:    %v\n", s.DarkMode)
	fmt.Printf("last updated: %s\n", formatClock(s.LastUpdated))
	return nil
}

// EditSettings prompts for each settings field; empty input keeps the
// current value.
func (a *App) EditSettings(ctx context.Context) error {
	s := a.svc.Settings()

	name, err := readLine(a.reader, fmt.Sprintf("Display name [%s]:", s.DisplayName))
	if err != nil {
		return err
	}
	if name != "" {
		s.DisplayName = name
	}

	subtitle, err := readLine(a.reader, fmt.Sprintf("Subtitle [%s]:", s.Subtitle))
	if err != nil {
		return err
	}
	if subtitle != "" {
		s.Subtitle = subtitle
	}

	theme, err := readLine(a.reader, fmt.Sprintf("Theme [%s]:", s.Theme))
	if err != nil {
		return err
	}
	if theme != "" {
		s.Theme = theme
	}

	s.DarkMode = readYesNo(a.reader, "Dark mode?")

	outcome, err := a.svc.SaveSettings(ctx, s)
	if err != nil {
		return err
	}
	fmt.Printf("settings saved (%s)\n", describeOutcome(outcome))
	return nil
}
