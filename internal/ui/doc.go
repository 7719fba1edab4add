// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI renders whatever state the curator.Controller holds:
//  1. Input : Seed song field with the last validation or request error
//  2. Loading : Spinner while the single request is in flight
//  3. Result : Ranked recommendations for the resolved seed
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Requests run inside a tea.Cmd and come back as an outcome message; the controller drops outcomes that a newer action has superseded.
//
// Keyboard: enter submits, esc cancels a pending request (or quits from the input view), r starts over from a result, q quits.
package ui
