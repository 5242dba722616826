// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

func (h *Host) systemTools() []Descriptor {
	return []Descriptor{
		{
			ID:          "dark_mode",
			Description: "Toggle or set dark mode on macOS",
			Schema: Object(Field{
				Name:        "enable",
				Type:        TypeBoolean,
				Description: "true for dark mode, false for light mode. If not provided, toggles current mode.",
			}),
			Execute: h.darkMode,
		},
		{
			ID:          "lock_screen",
			Description: "Lock the Mac screen immediately",
			Execute:     h.pmsetDisplaySleep("Screen locked"),
		},
		{
			ID:          "sleep_display",
			Description: "Put the display to sleep (screen off, Mac stays awake)",
			Execute:     h.pmsetDisplaySleep("Display sleeping"),
		},
		{
			ID:          "battery_status",
			Description: "Get the current battery status and percentage",
			Execute:     h.batteryStatus,
		},
		{
			ID:          "running_apps",
			Description: "List all currently running applications",
			Execute:     h.runningApps,
		},
		{
			ID:          "front_app",
			Description: "Get the currently focused/frontmost application",
			Execute:     h.frontApp,
		},
		{
			ID:          "do_not_disturb",
			Description: "Toggle Do Not Disturb mode (Focus mode)",
			Schema: Object(Field{
				Name:        "enable",
				Type:        TypeBoolean,
				Description: "true to enable DND, false to disable",
				Required:    true,
			}),
			Execute: h.doNotDisturb,
		},
		{
			ID:          "empty_trash",
			Description: "Empty the Trash",
			Execute:     h.emptyTrash,
		},
	}
}

const darkModeScript = `tell application "System Events"
	tell appearance preferences
		set dark mode to %s
	end tell
end tell`

func (h *Host) darkMode(ctx context.Context, args Args) (Outcome, error) {
	target, message := "not dark mode", "Toggled dark mode"
	if args.Has("enable") {
		enable := args.Bool("enable")
		target = strconv.FormatBool(enable)
		message = "Light mode enabled"
		if enable {
			message = "Dark mode enabled"
		}
	}
	if _, err := h.appleScript(ctx, fmt.Sprintf(darkModeScript, target)); err != nil {
		return Fail(fmt.Sprintf("Failed to change appearance: %v", err)), nil
	}
	return Succeed(message, nil), nil
}

func (h *Host) pmsetDisplaySleep(done string) ExecuteFunc {
	return func(ctx context.Context, _ Args) (Outcome, error) {
		if _, err := h.run(ctx, "pmset", "displaysleepnow"); err != nil {
			return Fail(fmt.Sprintf("Failed to sleep display: %v", err)), nil
		}
		return Succeed(done, nil), nil
	}
}

var (
	batteryPercent = regexp.MustCompile(`(\d+)%`)
	batteryState   = regexp.MustCompile(`(?i)(discharging|charging|charged)`)
)

func (h *Host) batteryStatus(ctx context.Context, _ Args) (Outcome, error) {
	res, err := h.run(ctx, "pmset", "-g", "batt")
	if err != nil {
		return Fail(fmt.Sprintf("Failed to read battery status: %v", err)), nil
	}
	return Succeed(parseBattery(res.Stdout)), nil
}

// parseBattery extracts the charge and state from `pmset -g batt` output.
func parseBattery(output string) (string, BatteryData) {
	data := BatteryData{Status: "unknown"}
	percent := "unknown"
	if m := batteryPercent.FindStringSubmatch(output); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			data.Percentage = &n
			percent = m[1]
		}
	}
	if m := batteryState.FindStringSubmatch(output); m != nil {
		data.Status = strings.ToLower(m[1])
	}
	return fmt.Sprintf("Battery: %s%% (%s)", percent, data.Status), data
}

func (h *Host) runningApps(ctx context.Context, _ Args) (Outcome, error) {
	out, err := h.appleScript(ctx, `tell application "System Events" to get name of every process whose background only is false`)
	if err != nil {
		return Fail(fmt.Sprintf("Failed to get running apps: %v", err)), nil
	}
	if out == "" {
		return Fail("Failed to get running apps"), nil
	}
	apps := strings.Split(out, ", ")
	return Succeed("Running apps: "+strings.Join(apps, ", "), AppsData{Apps: apps}), nil
}

func (h *Host) frontApp(ctx context.Context, _ Args) (Outcome, error) {
	out, err := h.appleScript(ctx, `tell application "System Events" to get name of first process whose frontmost is true`)
	if err != nil {
		return Fail(fmt.Sprintf("Failed to get front app: %v", err)), nil
	}
	if out == "" {
		return Fail("Failed to get front app"), nil
	}
	return Succeed("Front app: "+out, FrontAppData{App: out}), nil
}

func (h *Host) doNotDisturb(ctx context.Context, args Args) (Outcome, error) {
	enable := args.Bool("enable")
	shortcut := "Turn Do Not Disturb Off"
	if enable {
		shortcut = "Turn Do Not Disturb On"
	}
	if _, err := h.run(ctx, "shortcuts", "run", shortcut); err != nil {
		return Fail(fmt.Sprintf("DND toggle requires a Shortcuts shortcut named %q: %v", shortcut, err)), nil
	}
	if enable {
		return Succeed("Do Not Disturb enabled", nil), nil
	}
	return Succeed("Do Not Disturb disabled", nil), nil
}

func (h *Host) emptyTrash(ctx context.Context, _ Args) (Outcome, error) {
	if _, err := h.appleScript(ctx, `tell application "Finder" to empty trash`); err != nil {
		return Fail(fmt.Sprintf("Failed to empty trash: %v", err)), nil
	}
	return Succeed("Trash emptied", nil), nil
}
