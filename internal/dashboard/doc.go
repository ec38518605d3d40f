// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard builds the overview screen's data: summary totals from
// the timeline and the three read panels loaded side by side.
package dashboard
