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
	"net/url"
	"strconv"
	"strings"

	"dunmac/internal/sandbox"
)

func appField(description string) Field {
	return Field{
		Name:        "app",
		Type:        TypeString,
		Description: description,
		Enum:        appChoice,
		Default:     "music",
	}
}

func (h *Host) mediaTools() []Descriptor {
	volumeMin, volumeMax := Bound(0, 100)
	return []Descriptor{
		{
			ID:          "music_play",
			Description: "Play music or search and play a specific song/artist/playlist. Works with Apple Music or Spotify.",
			Schema: Object(
				Field{Name: "query", Type: TypeString, Description: "Search query (song, artist, or playlist name). If empty, resumes playback."},
				appField("Which app to use: 'music' for Apple Music, 'spotify' for Spotify. Default: music"),
			),
			Execute: h.musicPlay,
		},
		{
			ID:          "music_pause",
			Description: "Pause music playback",
			Schema:      Object(appField("Which app: 'music' or 'spotify'. Default: music")),
			Execute:     h.musicCommand("pause", "Paused %s"),
		},
		{
			ID:          "music_next",
			Description: "Skip to next track",
			Schema:      Object(appField("Which app: 'music' or 'spotify'. Default: music")),
			Execute:     h.musicCommand("next track", "Skipped to next track on %s"),
		},
		{
			ID:          "music_previous",
			Description: "Go to previous track",
			Schema:      Object(appField("Which app: 'music' or 'spotify'. Default: music")),
			Execute:     h.musicCommand("previous track", "Previous track on %s"),
		},
		{
			ID:          "volume_set",
			Description: "Set the system volume level",
			Schema: Object(Field{
				Name:        "level",
				Type:        TypeNumber,
				Description: "Volume level from 0 to 100",
				Required:    true,
				Min:         volumeMin,
				Max:         volumeMax,
			}),
			Execute: h.volumeSet,
		},
		{
			ID:          "volume_mute",
			Description: "Mute or unmute the system volume",
			Schema: Object(Field{
				Name:        "mute",
				Type:        TypeBoolean,
				Description: "true to mute, false to unmute",
				Required:    true,
			}),
			Execute: h.volumeMute,
		},
	}
}

const musicSearchScript = `tell application "Music"
	activate
	set results to (search playlist "Library" for %s)
	if length of results > 0 then
		play item 1 of results
	else
		play
	end if
end tell`

func (h *Host) musicPlay(ctx context.Context, args Args) (Outcome, error) {
	choice := args.String("app")
	name := appName(choice)
	query := strings.TrimSpace(sandbox.StripLiteral(args.String("query")))

	if query == "" {
		if _, err := h.appleScript(ctx, fmt.Sprintf("tell application %s to play", sandbox.Quote(name))); err != nil {
			return Fail(fmt.Sprintf("Failed to resume playback on %s: %v", name, err)), nil
		}
		return Succeed("Resumed playback on "+name, nil), nil
	}

	var script string
	if choice == "spotify" {
		uri := "spotify:search:" + url.PathEscape(query)
		script = fmt.Sprintf(`tell application "Spotify" to play track %s`, sandbox.Quote(uri))
	} else {
		script = fmt.Sprintf(musicSearchScript, sandbox.Quote(query))
	}
	if _, err := h.appleScript(ctx, script); err != nil {
		return Fail(fmt.Sprintf("Failed to play music: %v", err)), nil
	}
	return Succeed(fmt.Sprintf("Playing %q on %s", query, name), nil), nil
}

// musicCommand builds a transport-control tool. command is fixed text, never user input.
func (h *Host) musicCommand(command, done string) ExecuteFunc {
	return func(ctx context.Context, args Args) (Outcome, error) {
		name := appName(args.String("app"))
		script := fmt.Sprintf("tell application %s to %s", sandbox.Quote(name), command)
		if _, err := h.appleScript(ctx, script); err != nil {
			return Fail(fmt.Sprintf("Failed to %s on %s: %v", command, name, err)), nil
		}
		return Succeed(fmt.Sprintf(done, name), nil), nil
	}
}

func (h *Host) volumeSet(ctx context.Context, args Args) (Outcome, error) {
	level := strconv.FormatFloat(args.Float("level"), 'f', -1, 64)
	if _, err := h.appleScript(ctx, "set volume output volume "+level); err != nil {
		return Fail(fmt.Sprintf("Failed to set volume: %v", err)), nil
	}
	return Succeed(fmt.Sprintf("Volume set to %s%%", level), nil), nil
}

func (h *Host) volumeMute(ctx context.Context, args Args) (Outcome, error) {
	mute := args.Bool("mute")
	if _, err := h.appleScript(ctx, fmt.Sprintf("set volume output muted %t", mute)); err != nil {
		return Fail(fmt.Sprintf("Failed to change mute state: %v", err)), nil
	}
	if mute {
		return Succeed("Muted", nil), nil
	}
	return Succeed("Unmuted", nil), nil
}
