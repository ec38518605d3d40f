// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package correlation keeps the investigation view's Selection consistent
// while the explanation and storyline of a clicked event load.
//
// Every Select starts a new generation identified by a sequence number.
// Both lookups carry the number they were issued under and their results
// are applied only if it is still the current one, so a slow response for
// an earlier click can never land under a later event's header.
//
// # Key Types
//
//   - Controller: owns the Selection, issues lookups, filters stale results
//   - Selection: event plus explanation and storyline slots
//   - Slot: Empty, Loading, Ready(value) or Failed(err)
//   - ExplanationMsg, StorylineMsg: Bubble Tea messages carrying results
//
// # Usage
//
//	ctrl := correlation.NewController(client, logger)
//
//	// in Update:
//	case eventClicked:
//	    return m, ctrl.Select(msg.Event)
//	case correlation.ExplanationMsg, correlation.StorylineMsg:
//	    ctrl.Update(msg)
package correlation
