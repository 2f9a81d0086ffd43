package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/birddog-tools/bdctl/internal/birddog"
)

// sourceItem wraps an NdiSource for use with bubbles/list
type sourceItem struct {
	source birddog.NdiSource
}

// Implement list.Item interface
func (s sourceItem) FilterValue() string {
	return s.source.Name + " " + s.source.Address
}

// Title returns the source name for list display
func (s sourceItem) Title() string {
	if s.source.IsCurrent {
		return fmt.Sprintf("%s %s", CurrentMarker, s.source.Name)
	}
	return s.source.Name
}

// Description returns source details for list display
func (s sourceItem) Description() string {
	if s.source.Address == "" {
		return fmt.Sprintf("index %d", s.source.Index)
	}
	return fmt.Sprintf("index %d • %s", s.source.Index, s.source.Address)
}

// pickerKeyMap defines key bindings for the source picker
type pickerKeyMap struct {
	Select key.Binding
	Quit   key.Binding
}

// pickerModel represents the source picker screen state
type pickerModel struct {
	sourceList list.Model
	keys       pickerKeyMap
	selected   bool
	quitting   bool
	width      int
	height     int
}

func newPickerModel(sources []birddog.NdiSource) pickerModel {
	items := make([]list.Item, len(sources))
	for i, src := range sources {
		items[i] = sourceItem{source: src}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(PrimaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(MutedColor)

	sourceList := list.New(items, delegate, 0, 0)
	sourceList.Title = "NDI Sources"
	sourceList.SetShowStatusBar(false)
	sourceList.SetFilteringEnabled(true)
	sourceList.Styles.Title = TitleStyle

	keys := pickerKeyMap{
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return pickerModel{
		sourceList: sourceList,
		keys:       keys,
	}
}

// Init initializes the picker model
func (m pickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Do not intercept keys while the list filter input is active
		if m.sourceList.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Select):
			if m.sourceList.SelectedItem() != nil {
				m.selected = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sourceList.SetWidth(msg.Width - 4)
		m.sourceList.SetHeight(msg.Height - 4)
	}

	var cmd tea.Cmd
	m.sourceList, cmd = m.sourceList.Update(msg)
	return m, cmd
}

// View renders the picker screen
func (m pickerModel) View() string {
	if m.quitting || m.selected {
		return ""
	}
	return "\n" + m.sourceList.View()
}

// pickedSource returns the chosen source, or nil when the user quit
func (m pickerModel) pickedSource() *birddog.NdiSource {
	if !m.selected {
		return nil
	}
	item, ok := m.sourceList.SelectedItem().(sourceItem)
	if !ok {
		return nil
	}
	src := item.source
	return &src
}

// PickSource runs an interactive picker over the given sources. It returns
// nil when the user quits without choosing.
func PickSource(sources []birddog.NdiSource) (*birddog.NdiSource, error) {
	model := newPickerModel(sources)
	program := tea.NewProgram(model, tea.WithAltScreen())

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("source picker failed: %w", err)
	}

	result, ok := final.(pickerModel)
	if !ok {
		return nil, fmt.Errorf("source picker returned unexpected model")
	}
	return result.pickedSource(), nil
}
