package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/NobeKanai/dvtag/internal/config"
	"github.com/NobeKanai/dvtag/internal/tagging"
	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_ToggleOptions(t *testing.T) {
	m := NewModel(config.DefaultSettings())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyF2})

	if !m.dryRun {
		t.Error("f1 should enable dry run")
	}
	if !m.playlist {
		t.Error("f2 should enable playlist")
	}

	s := m.runSettings()
	if !s.DryRun || !s.CreatePlaylist {
		t.Errorf("runSettings = %+v, want dry run and playlist", s)
	}
	if m.settings.DryRun {
		t.Error("options must not change the base settings")
	}
}

func TestModel_ProgressFiltering(t *testing.T) {
	m := NewModel(nil)

	m = update(t, m, ProgressMsg{Event: tagging.ProgressEvent{Message: "debug", Level: tagging.LevelVerbose}})
	if len(m.logs) != 0 {
		t.Errorf("verbose event logged without verbose mode: %v", m.logs)
	}

	for i := range 15 {
		m = update(t, m, ProgressMsg{Event: tagging.ProgressEvent{Message: fmt.Sprint(i), Level: tagging.LevelInfo}})
	}
	if len(m.logs) != maxLogs {
		t.Fatalf("len(logs) = %d, want %d", len(m.logs), maxLogs)
	}
	if m.logs[0].Message != "5" {
		t.Errorf("oldest log = %q, want %q", m.logs[0].Message, "5")
	}
}

func TestModel_DiscoverDone(t *testing.T) {
	m := NewModel(nil)
	m.state = StateDiscovering

	empty := update(t, m, DiscoverDoneMsg{})
	if empty.state != StateError {
		t.Errorf("state = %v, want StateError when nothing was found", empty.state)
	}

	failed := update(t, m, DiscoverDoneMsg{Err: errors.New("read /x: permission denied")})
	if failed.state != StateError || !strings.Contains(failed.View(), "permission denied") {
		t.Error("discover error should be shown")
	}
}

func TestModel_RunDone(t *testing.T) {
	m := NewModel(nil)
	m.state = StateTagging

	partial := update(t, m, RunDoneMsg{
		Progress: tagging.Progress{Releases: 2, DoneReleases: 2, FailedReleases: 1, TaggedFiles: 7},
		Err:      fmt.Errorf("1 of 2: %w", tagging.ErrReleasesFailed),
	})
	if partial.state != StateComplete {
		t.Errorf("state = %v, want StateComplete for partially failed runs", partial.state)
	}
	if !strings.Contains(partial.View(), "Tagged files: 7") {
		t.Error("summary should show tagged files")
	}
}
