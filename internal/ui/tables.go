package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/route"
	"github.com/guardcore/guarddash/internal/state"
)

// tableData is one view's table: columns, rows and a key per row that
// identifies the entity an action applies to.
type tableData struct {
	columns []table.Column
	rows    []table.Row
	keys    []string
}

func buildTable(path string, snap state.Snapshot, now time.Time) tableData {
	switch path {
	case route.Admins:
		return adminTable(snap.Admins)
	case route.Nodes:
		return nodeTable(snap.Nodes, now)
	case route.Services:
		return serviceTable(snap.Services)
	case route.Subscriptions:
		return subscriptionTable(snap.Subscriptions, now)
	default:
		return tableData{}
	}
}

func adminTable(admins []guardcore.AdminResponse) tableData {
	d := tableData{columns: []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Username", Width: 18},
		{Title: "Role", Width: 10},
		{Title: "State", Width: 9},
		{Title: "Subs", Width: 10},
		{Title: "Usage", Width: 20},
	}}
	for _, a := range admins {
		d.rows = append(d.rows, table.Row{
			strconv.FormatInt(a.ID, 10),
			a.Username,
			guardcore.FormatRole(a.Role),
			enabledLabel(a.Enabled),
			ratio(a.CurrentCount, a.CountLimit, "0", func(v int64) string { return strconv.FormatInt(v, 10) }),
			ratio(a.CurrentUsage, a.UsageLimit, "0", func(v int64) string { return guardcore.FormatBytes(v, 2) }),
		})
		d.keys = append(d.keys, a.Username)
	}
	return d
}

func nodeTable(nodes []guardcore.NodeResponse, now time.Time) tableData {
	d := tableData{columns: []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Remark", Width: 18},
		{Title: "Category", Width: 12},
		{Title: "Host", Width: 24},
		{Title: "State", Width: 9},
		{Title: "Usage", Width: 10},
		{Title: "Last used", Width: 14},
	}}
	for _, n := range nodes {
		d.rows = append(d.rows, table.Row{
			strconv.FormatInt(n.ID, 10),
			n.Remark,
			guardcore.FormatCategory(n.Category),
			n.Host,
			enabledLabel(n.Enabled),
			guardcore.FormatBytes(n.CurrentUsage, 2),
			guardcore.FormatRelativeTime(n.LastUsedAt, now),
		})
		d.keys = append(d.keys, strconv.FormatInt(n.ID, 10))
	}
	return d
}

func serviceTable(services []guardcore.ServiceResponse) tableData {
	d := tableData{columns: []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Remark", Width: 24},
		{Title: "Nodes", Width: 20},
		{Title: "Users", Width: 8},
	}}
	for _, s := range services {
		ids := make([]string, 0, len(s.NodeIDs))
		for _, id := range s.NodeIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		users := "-"
		if s.UsersCount != nil {
			users = strconv.FormatInt(*s.UsersCount, 10)
		}
		d.rows = append(d.rows, table.Row{
			strconv.FormatInt(s.ID, 10),
			s.Remark,
			strings.Join(ids, ","),
			users,
		})
		d.keys = append(d.keys, strconv.FormatInt(s.ID, 10))
	}
	return d
}

func subscriptionTable(subs []guardcore.SubscriptionResponse, now time.Time) tableData {
	d := tableData{columns: []table.Column{
		{Title: "Username", Width: 18},
		{Title: "Owner", Width: 12},
		{Title: "Status", Width: 9},
		{Title: "Usage", Width: 22},
		{Title: "Time left", Width: 12},
		{Title: "Online", Width: 7},
	}}
	for _, s := range subs {
		metrics := guardcore.GetSubscriptionMetrics(s, now)
		usage := guardcore.FormatBytes(s.CurrentUsage, 2)
		if s.LimitUsage > 0 {
			usage = fmt.Sprintf("%s / %s", usage, guardcore.FormatBytes(s.LimitUsage, 2))
		}
		online := "no"
		if s.IsOnline {
			online = "yes"
		}
		d.rows = append(d.rows, table.Row{
			s.Username,
			s.OwnerUsername,
			string(guardcore.StatusOf(s)),
			usage,
			guardcore.FormatTimeLeft(metrics.TimeLeftSeconds),
			online,
		})
		d.keys = append(d.keys, s.Username)
	}
	return d
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// ratio renders "current / limit", or just current when there is no limit.
func ratio(current, limit *int64, zero string, format func(int64) string) string {
	value := zero
	if current != nil {
		value = format(*current)
	}
	if limit == nil || *limit <= 0 {
		return value
	}
	return value + " / " + format(*limit)
}
