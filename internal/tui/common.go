package tui

import (
	"fmt"
	"hash/fnv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/tracker"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewDetail
	viewReports
	viewSettings
)

var viewNames = []string{"Today", "Detail", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// trackerEventMsg carries a committed mutation from the tracker.
type trackerEventMsg tracker.Event

// openDetailMsg switches to the Detail view for a root block.
type openDetailMsg struct {
	block store.TimeBlock
}

type exportDoneMsg struct {
	path string
}

func errorStatus(err error) tea.Msg {
	return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

var blockColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

// blockColor gives every block name a stable color.
func blockColor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return blockColors[h.Sum32()%uint32(len(blockColors))]
}
