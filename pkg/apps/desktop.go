package apps

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rubiojr/omnibox/pkg/core"
)

var fieldCodeRe = regexp.MustCompile(`\s*%[fFuUdDnNickvm]`)

// DesktopID derives the freedesktop desktop-file id of path relative to dir:
// "kde/org.kde.konsole.desktop" becomes "kde-org.kde.konsole".
func DesktopID(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".desktop")
	return strings.ReplaceAll(rel, "/", "-")
}

// ParseDesktopEntry reads the [Desktop Entry] group of a .desktop file.
// ok is false for entries that should not be listed: non-applications and
// entries marked Hidden or NoDisplay.
func ParseDesktopEntry(r io.Reader, id string) (app core.AppEntry, ok bool, err error) {
	fields := make(map[string]string)
	inEntry := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inEntry = line == "[Desktop Entry]"
			continue
		}
		if !inEntry {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		// Localized keys (Name[de]) are ignored; the untranslated value is used.
		if strings.Contains(key, "[") {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return core.AppEntry{}, false, fmt.Errorf("reading desktop entry %s: %w", id, err)
	}

	if t := fields["Type"]; t != "" && t != "Application" {
		return core.AppEntry{}, false, nil
	}
	if strings.EqualFold(fields["Hidden"], "true") || strings.EqualFold(fields["NoDisplay"], "true") {
		return core.AppEntry{}, false, nil
	}
	name := fields["Name"]
	if name == "" {
		return core.AppEntry{}, false, nil
	}

	app = core.AppEntry{
		ID:   id,
		Name: name,
		Exec: cleanExec(fields["Exec"]),
		Icon: fields["Icon"],
	}
	for _, c := range strings.Split(fields["Categories"], ";") {
		if c = strings.TrimSpace(c); c != "" {
			app.Categories = append(app.Categories, c)
		}
	}
	return app, true, nil
}

// cleanExec strips field codes such as %U from an Exec line.
func cleanExec(exec string) string {
	exec = fieldCodeRe.ReplaceAllString(exec, "")
	return strings.ReplaceAll(strings.TrimSpace(exec), "%%", "%")
}
