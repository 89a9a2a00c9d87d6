// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/jeranaias/queryosity-tui/internal/model"
	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
	"github.com/jeranaias/queryosity-tui/internal/util"
)

// =============================================================================
// FILE LIST COMPONENT
// =============================================================================

// FileList shows the uploaded documents with one selected entry.
type FileList struct {
	Files    []model.FileRecord
	Selected int
	Width    int
	Height   int
	Focused  bool
	theme    *styles.Theme
}

// NewFileList creates an empty file list.
func NewFileList(theme *styles.Theme) *FileList {
	return &FileList{theme: theme, Width: 30, Height: 10}
}

// SetSize sets the list dimensions.
func (l *FileList) SetSize(width, height int) {
	l.Width = width
	l.Height = height
}

// SetFiles replaces the list wholesale, keeping the selection in range.
func (l *FileList) SetFiles(files []model.FileRecord) {
	l.Files = files
	switch {
	case len(files) == 0:
		l.Selected = 0
	case l.Selected >= len(files):
		l.Selected = len(files) - 1
	case l.Selected < 0:
		l.Selected = 0
	}
}

// MoveUp moves the selection up one entry.
func (l *FileList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
	}
}

// MoveDown moves the selection down one entry.
func (l *FileList) MoveDown() {
	if l.Selected < len(l.Files)-1 {
		l.Selected++
	}
}

// SelectedName returns the display name of the selected file.
func (l *FileList) SelectedName() (string, bool) {
	if l.Selected < 0 || l.Selected >= len(l.Files) {
		return "", false
	}
	name := l.Files[l.Selected].DisplayName()
	return name, name != ""
}

// View renders the list.
func (l *FileList) View() string {
	title := "Documents (" + strconv.Itoa(len(l.Files)) + ")"
	lines := []string{l.theme.SidebarTitle.Render(title)}

	if len(l.Files) == 0 {
		lines = append(lines, l.theme.EmptyState.Render("No files uploaded"))
		return strings.Join(lines, "\n")
	}

	// Keep the selection visible.
	rows := maxInt(l.Height-2, 1)
	start := 0
	if l.Selected >= rows {
		start = l.Selected - rows + 1
	}
	end := minInt(start+rows, len(l.Files))

	nameWidth := maxInt(l.Width-2, 4)
	for i := start; i < end; i++ {
		name := util.PadRight(util.Truncate(util.SingleLine(l.Files[i].DisplayName()), nameWidth), nameWidth)
		if i == l.Selected && l.Focused {
			lines = append(lines, l.theme.FileItemSelected.Render("> "+name))
		} else if i == l.Selected {
			lines = append(lines, l.theme.FileItem.Render("> "+name))
		} else {
			lines = append(lines, l.theme.FileItem.Render("  "+name))
		}
	}
	return strings.Join(lines, "\n")
}
