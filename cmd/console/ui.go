package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/branch-engine/internal/config"
	"github.com/jwebster45206/branch-engine/internal/logger"
	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/story"
	"github.com/jwebster45206/branch-engine/pkg/storyfile"
)

const (
	Title        = "BRANCH ENGINE"
	ContinueHint = "... press Enter to continue"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger

	// backend builds the audio player for a story; nil plays no audio.
	backend  func(storyName string) audio.Player
	observer func(storyName string) story.Observer

	storyViewport viewport.Model
	metaViewport  viewport.Model
	ready         bool
	width         int
	height        int
	err           error
	status        string

	// Story selection state
	showStoryModal bool
	stories        []string
	storyMap       map[string]string
	selectedStory  int
	loadingStories bool

	// Quit confirmation state
	showQuitModal bool

	// Play state
	file           *storyfile.File
	engine         *story.Engine
	session        *story.Session
	player         *audio.AsyncPlayer
	observerDone   io.Closer
	beat           story.Beat
	hasBeat        bool
	selectedChoice int
	transcript     []entry
}

type entryKind int

const (
	entryBody entryKind = iota
	entryChoice
	entryNotice
)

type entry struct {
	kind entryKind
	text string
}

type storiesLoadedMsg struct {
	stories  []string
	storyMap map[string]string
	err      error
}

type storyLoadedMsg struct {
	file     *storyfile.File
	engine   *story.Engine
	player   *audio.AsyncPlayer
	observer io.Closer
	err      error
}

type copiedMsg struct {
	err error
}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(ctx context.Context, cfg *config.Config, log *slog.Logger) ConsoleUI {
	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		ctx:            ctx,
		cfg:            cfg,
		logger:         log,
		storyViewport:  storyVp,
		metaViewport:   metaVp,
		showStoryModal: true,
		loadingStories: true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadStories()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showStoryModal {
		return m.updateStoryModal(msg)
	}

	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeStoryContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case copiedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Copy failed: " + msg.err.Error())
		} else {
			m.status = "Transcript copied to clipboard."
		}
		m.writeStoryContent()
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.choosing() && m.selectedChoice > 0 {
				m.selectedChoice--
				m.writeStoryContent()
				return m, nil
			}
		case tea.KeyDown:
			if m.choosing() && m.selectedChoice < len(m.beat.Block.Choices)-1 {
				m.selectedChoice++
				m.writeStoryContent()
				return m, nil
			}
		case tea.KeyEnter:
			switch {
			case !m.hasBeat:
				m.showStoryModal = true
				m.err = nil
				return m, nil
			case m.choosing():
				m.choose(m.selectedChoice)
			default:
				m.proceed()
			}
			return m, nil
		case tea.KeySpace:
			m.proceed()
			return m, nil
		case tea.KeyRunes:
			key := msg.String()
			switch {
			case key == "q" || key == "Q":
				m.showQuitModal = true
				return m, nil
			case key == "y" || key == "Y":
				return m, copyTranscript(m.transcriptText())
			case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
				m.choose(int(key[0] - '1'))
				return m, nil
			}
		}
	}

	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	return m, vpCmd
}

// choosing reports whether the current block waits for a choice.
func (m ConsoleUI) choosing() bool {
	return m.hasBeat && m.beat.Block.HasChoices()
}

// startStory replaces any running story with the loaded one and plays up
// to its first block.
func (m *ConsoleUI) startStory(msg storyLoadedMsg) {
	m.closeAudio()
	m.file = msg.file
	m.engine = msg.engine
	m.player = msg.player
	m.observerDone = msg.observer
	m.session = msg.engine.NewSession()
	m.transcript = nil
	m.err = nil
	m.status = ""
	m.showStoryModal = false

	logger.WithSession(m.logger, m.session.ID).Info("Story started", "story", m.file.Name, "entry", m.engine.Entry())

	m.resize()
	m.ready = true
	m.step()
}

// step asks the session for the next block and records it.
func (m *ConsoleUI) step() {
	beat, err := m.session.Next(m.ctx)
	switch {
	case err == nil:
		m.beat = beat
		m.hasBeat = true
		m.selectedChoice = 0
		m.transcript = append(m.transcript, entry{entryBody, beat.Block.Body.String()})
		if beat.Block.HasCue() {
			_ = m.engine.Player().Trigger(m.ctx, *beat.Block.Cue)
		}
	case errors.Is(err, story.ErrStoryEnded):
		m.hasBeat = false
		m.transcript = append(m.transcript, entry{entryNotice, story.EndMessage})
	case errors.Is(err, story.ErrMissingScene):
		m.hasBeat = false
		m.err = err
		m.transcript = append(m.transcript, entry{entryNotice, story.MissingSceneMessage(beat.Label)})
		logger.WithError(m.logger, err).Error("Missing scene", "label", beat.Label)
	default:
		m.hasBeat = false
		m.err = err
	}

	m.writeStoryContent()
	m.metaViewport.SetContent(m.writeMetadata())
}

func (m *ConsoleUI) choose(i int) {
	if !m.choosing() || i < 0 || i >= len(m.beat.Block.Choices) {
		return
	}
	c := m.beat.Block.Choices[i]
	m.transcript = append(m.transcript, entry{entryChoice, c.Outcome()})
	if err := m.session.Advance(story.Jump(c.Target)); err != nil {
		m.err = err
		return
	}
	m.step()
}

func (m *ConsoleUI) proceed() {
	if !m.hasBeat || m.beat.Block.HasChoices() {
		return
	}
	if err := m.session.Advance(story.Continue()); err != nil {
		m.err = err
		return
	}
	m.step()
}

// closeAudio drains the background workers of the current story.
func (m *ConsoleUI) closeAudio() {
	if m.player != nil {
		_ = m.player.Close()
		m.player = nil
	}
	if m.observerDone != nil {
		_ = m.observerDone.Close()
		m.observerDone = nil
	}
}

func (m *ConsoleUI) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	m.storyViewport.Width = storyWidth - 2
	m.storyViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
}

// transcriptText renders the story so far as plain text.
func (m ConsoleUI) transcriptText() string {
	var b strings.Builder
	for _, e := range m.transcript {
		if e.kind == entryChoice {
			b.WriteString(story.Prompt)
		}
		b.WriteString(e.text)
		b.WriteString("\n")
	}
	return b.String()
}

// writeStoryContent rebuilds the story viewport for its current width.
func (m *ConsoleUI) writeStoryContent() {
	width := m.storyViewport.Width - 6 // Account for left(3) + right(3) padding
	if width < 10 {
		width = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(Title) + "\n\n")
	if m.file != nil {
		content.WriteString(m.file.Name + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, e := range m.transcript {
		wrapped := wordwrap.String(e.text, width-2)
		switch e.kind {
		case entryChoice:
			content.WriteString(userStyle.Render(story.Prompt+wrapped) + "\n\n")
		case entryNotice:
			if m.err != nil {
				content.WriteString(errorStyle.Render(wrapped) + "\n\n")
			} else {
				content.WriteString(titleStyle.Render(wrapped) + "\n\n")
			}
		default:
			content.WriteString(narratorStyle.Render(wrapped) + "\n\n")
		}
	}

	switch {
	case m.choosing():
		for i, c := range m.beat.Block.Choices {
			line := fmt.Sprintf("%d : %s", i+1, c.Display)
			if i == m.selectedChoice {
				content.WriteString(modalSelectedItemStyle.Render("▶ "+line) + "\n")
			} else {
				content.WriteString(modalItemStyle.Render("  "+line) + "\n")
			}
		}
	case m.hasBeat:
		content.WriteString(promptStyle.Render(ContinueHint) + "\n")
	case m.session != nil:
		if m.err != nil && !errors.Is(m.err, story.ErrMissingScene) {
			content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
		}
		content.WriteString(promptStyle.Render("Press Enter to choose another story, Q to quit") + "\n")
	}

	if m.status != "" {
		content.WriteString("\n" + m.status + "\n")
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")
	if m.session == nil {
		return content.String()
	}

	content.WriteString("Session ID:\n")
	content.WriteString(m.session.ID.String()[:8] + "...\n\n")

	content.WriteString("Story:\n")
	content.WriteString(m.file.Name + "\n\n")

	content.WriteString("Scene:\n")
	if m.session.Ended() {
		content.WriteString(m.engine.Terminal().String() + "\n\n")
	} else {
		content.WriteString(m.session.Label().String() + "\n\n")
	}

	content.WriteString("Scenes visited:\n")
	content.WriteString(fmt.Sprintf("%d total\n\n", len(m.session.Visited())))

	content.WriteString("Commands:\n")
	content.WriteString("• 1-9: Choose\n")
	content.WriteString("• ↑/↓ Enter: Choose\n")
	content.WriteString("• Enter: Continue\n")
	content.WriteString("• y: Copy transcript\n")
	content.WriteString("• q: Quit\n")
	return content.String()
}

func (m ConsoleUI) loadStories() tea.Cmd {
	dir, log := m.cfg.StoryDir, m.logger
	return func() tea.Msg {
		storyMap, err := storyfile.List(dir, log)
		if err != nil {
			return storiesLoadedMsg{err: err}
		}
		return storiesLoadedMsg{stories: storyfile.SortedNames(storyMap), storyMap: storyMap}
	}
}

// loadStory reads a story file and builds a fresh engine for it. The
// engine gets its own audio queue, closed when the story is replaced.
func (m ConsoleUI) loadStory(path string) tea.Cmd {
	cfg, log, backend, observer := m.cfg, m.logger, m.backend, m.observer
	return func() tea.Msg {
		f, err := storyfile.Load(path)
		if err != nil {
			return storyLoadedMsg{err: err}
		}

		opts := append(f.EngineOptions(), story.WithLogger(log.With("story", f.Name)))
		var player *audio.AsyncPlayer
		if backend != nil {
			player = audio.NewAsyncPlayer(backend(f.Name), cfg.AudioQueue, log)
			opts = append(opts, story.WithAudio(player))
		}
		var closer io.Closer
		if observer != nil {
			obs := observer(f.Name)
			closer, _ = obs.(io.Closer)
			opts = append(opts, story.WithObserver(obs))
		}

		fail := func(err error) tea.Msg {
			if player != nil {
				_ = player.Close()
			}
			if closer != nil {
				_ = closer.Close()
			}
			return storyLoadedMsg{err: err}
		}

		e := story.NewEngine(opts...)
		if err := f.Register(e, nil); err != nil {
			return fail(err)
		}
		if cfg.Strict {
			if err := e.Validate(); err != nil {
				return fail(err)
			}
		}
		return storyLoadedMsg{file: f, engine: e, player: player, observer: closer}
	}
}

func copyTranscript(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}

func (m ConsoleUI) updateStoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case storiesLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.stories = msg.stories
			m.storyMap = msg.storyMap
		}

	case storyLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Warn("Failed to load story", "error", msg.err)
			return m, nil
		}
		m.startStory(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.loadingStories {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		}
		if m.loadingStories {
			return m, nil
		}
		if m.err != nil {
			// Any key dismisses a load error once the list is known.
			if m.stories != nil {
				m.err = nil
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedStory > 0 {
				m.selectedStory--
			}
		case tea.KeyDown:
			if m.selectedStory < len(m.stories)-1 {
				m.selectedStory++
			}
		case tea.KeyEnter:
			if len(m.stories) > 0 {
				name := m.stories[m.selectedStory]
				m.loadingStories = true
				return m, m.loadStory(m.storyMap[name])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y", "q", "Q":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the story?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingStories {
		content.WriteString(modalTitleStyle.Render("Loading Stories..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Reading " + m.cfg.StoryDir + "..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(wordwrap.String(m.err.Error(), 54)))
		content.WriteString("\n\n")
		content.WriteString("Press any key to go back, Ctrl+C to exit")
	} else if len(m.stories) == 0 {
		content.WriteString(modalTitleStyle.Render("No Stories"))
		content.WriteString("\n\n")
		content.WriteString("No story files were found in " + m.cfg.StoryDir)
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Press Ctrl+C to exit"))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Story"))
		content.WriteString("\n\n")

		for i, name := range m.stories {
			if i == m.selectedStory {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showStoryModal {
		return m.renderStoryModal()
	}

	if !m.ready || m.width == 0 {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", storyWidth-4)),
			promptStyle.Render("1-9 or ↑/↓ + Enter to choose · Enter to continue · y copy · q quit"),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}
