// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the sentinel TUI.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values so the palette follows the
terminal's light or dark background.

  - Purple - selections and focused panels
  - Cyan - brand, headers, attempt bars
  - Emerald - blocked attempts and rule-backed verdicts
  - Rose - successful attacks and errors
  - Amber - warnings and model-only verdicts

Each attack category has its own color; AttackColor maps a category name to
it and RenderAttack draws the label. Status helpers (RenderSuccess,
RenderError, RenderWarning, RenderInfo, RenderPending) pair every color with
an ASCII indicator.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme) // "dark", "light" or "auto"
	theme.SetSize(msg.Width, msg.Height)
	box := theme.Panel.Render(content)
*/
package styles
