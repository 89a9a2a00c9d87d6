// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the queryosity TUI.

This package defines the color palette and the Theme of Lip Gloss styles
shared by the auth and chat views. All colors use Lip Gloss AdaptiveColor
for automatic light/dark terminal detection.

# Color System (colors.go)

  - Purple - Primary accent for bot messages and selections
  - Cyan - Brand color for info and user highlights
  - Emerald - Success states
  - Amber - Pending states and warnings
  - Rose - Errors and failed messages

Status helpers pair every color with an ASCII indicator:

	styles.RenderError("Upload failed")   // [X] Upload failed

# Theme System (theme.go)

	theme := styles.NewTheme("auto")
	theme.SetSize(width, height)
	if theme.GetLayoutMode() == styles.LayoutNarrow {
		// hide the file list
	}

# Spinners (animations.go)

	s := spinner.New()
	s.Spinner = styles.LineSpinner.Bubble()
*/
package styles
