package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibe/internal/curator"
	"github.com/desertthunder/vibe/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgOutcome MsgKind = iota
	MsgRecorded
)

// outcomeMsg is the constructor for [MsgOutcome]
func outcomeMsg(o curator.Outcome) Msg {
	return Msg{kind: MsgOutcome, data: o}
}

type recorded struct {
	entry *models.HistoryEntry
	err   error
}

// recordedMsg is the constructor for [MsgRecorded]
func recordedMsg(entry *models.HistoryEntry, err error) Msg {
	return Msg{kind: MsgRecorded, data: recorded{entry, err}}
}
