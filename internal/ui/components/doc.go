// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable view pieces of the sentinel TUI.

  - Header (header.go) - brand, screen tabs and signed-in user.
  - StatusBar (statusbar.go) - status message and key shortcuts.
  - Table (table.go) - fixed-width event and source tables, plus Bar for
    the timeline.
  - PayloadBlock (codeblock.go) - Chroma-highlighted payload excerpts; the
    lexer follows the attack category.

Components are plain values rendered against a *styles.Theme; they hold no
Bubble Tea state of their own.
*/
package components
