// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the aigw command surface: argument parsing,
// the chat / interactive / list-models / config / history commands,
// terminal detection, and text or JSON rendering.
//
// Commands return errors; main decides how to exit. Human-readable
// chatter goes to stderr so that JSON mode emits exactly one document
// on stdout per invocation.
package cli
