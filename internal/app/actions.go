package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const backupTimeLayout = "20060102-150405"

// SetNodeEnabled enables or disables a node and reloads the node list.
func (s *Session) SetNodeEnabled(ctx context.Context, nodeID int64, enabled bool) error {
	var err error
	if enabled {
		_, err = s.api.Nodes.Enable(ctx, nodeID)
	} else {
		_, err = s.api.Nodes.Disable(ctx, nodeID)
	}
	if err != nil {
		return err
	}
	_, err = s.FetchNodes(ctx, true)
	return err
}

// SetAdminEnabled enables or disables an admin and reloads the admin list.
func (s *Session) SetAdminEnabled(ctx context.Context, username string, enabled bool) error {
	var err error
	if enabled {
		_, err = s.api.Admins.Enable(ctx, username)
	} else {
		_, err = s.api.Admins.Disable(ctx, username)
	}
	if err != nil {
		return err
	}
	_, err = s.FetchAdmins(ctx)
	return err
}

// SetSubscriptionEnabled enables or disables one subscription and reloads
// the first page.
func (s *Session) SetSubscriptionEnabled(ctx context.Context, username string, enabled bool) error {
	var err error
	if enabled {
		_, err = s.api.Subscriptions.Enable(ctx, []string{username})
	} else {
		_, err = s.api.Subscriptions.Disable(ctx, []string{username})
	}
	if err != nil {
		return err
	}
	_, _, err = s.FetchInitialSubscriptions(ctx, true)
	return err
}

// ExportBackup downloads the signed-in admin's backup into dir and returns
// the written path. The file name carries the local time of the export.
func (s *Session) ExportBackup(ctx context.Context, dir string, now time.Time) (string, error) {
	data, err := s.api.Admins.GetBackup(ctx)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("guardcore-backup-%s.bin", now.Format(backupTimeLayout)))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}
