package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovasilenko/jotkeeper/internal/common"
)

// Sync triggers a manual reconciliation pass.
func (a *App) Sync(ctx context.Context) error {
	err := a.svc.SyncNow(ctx)
	switch {
	case err == nil:
		fmt.Println("sync complete")
		return nil
	case errors.Is(err, common.ErrSignedOut):
		fmt.Println("not signed in; notes live locally only")
		return nil
	case errors.Is(err, common.ErrAccessDenied):
		fmt.Println("access denied by the remote store; check your account")
		return err
	default:
		return err
	}
}

// ShowStatus prints mode, sync status and the last successful sync time.
func (a *App) ShowStatus(context.Context) error {
	if !a.signedIn() {
		fmt.Println("mode: signed out (local only)")
		return nil
	}
	mode := "offline"
	if a.monitor.Online() {
		mode = "online"
	}
	fmt.Printf("mode:      %s\n", mode)
	fmt.Printf("sync:      %s\n", a.svc.Status())
	fmt.Printf("last sync: %s\n", formatClock(a.svc.LastSync()))
	return nil
}
