package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"buntychat/internal/chat"
	"buntychat/internal/render"
)

type (
	streamOpenedMsg struct{ body io.ReadCloser }
	chunkMsg        struct {
		text string
		body io.ReadCloser
	}
	streamEndMsg struct{ err error }
	speechMsg    struct {
		index int
		audio []byte
		err   error
	}
	playbackDoneMsg struct {
		handle chat.Handle
		err    error
	}
)

// Model is the Bubble Tea model of the terminal chat.
type Model struct {
	ctx     context.Context
	backend Backend
	player  Player

	conv     chat.Conversation
	playback chat.Playback
	selected int // assistant message index, -1 when none
	cursor   int // sample prompt cursor

	input    textinput.Model
	viewport viewport.Model
	width    int
	status   string
}

func New(ctx context.Context, backend Backend, player Player) Model {
	ti := textinput.New()
	ti.Placeholder = "Message Bunty..."
	ti.Prompt = "> "
	ti.Focus()
	return Model{
		ctx:      ctx,
		backend:  backend,
		player:   player,
		selected: -1,
		input:    ti,
		viewport: viewport.New(80, 20),
		width:    80,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-3, 1)
		m.input.Width = max(msg.Width-4, 10)

	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "ctrl+c", "esc":
			m.releaseAudio()
			return m, tea.Quit
		case "enter":
			cmd = m.submit()
		case "ctrl+p":
			if m.selected >= 0 {
				cmd = m.dispatch(chat.PlayRequested{Index: m.selected})
			}
		case "ctrl+y":
			m.copyCode()
		case "tab", "shift+tab":
			step := 1
			if msg.String() == "shift+tab" {
				step = -1
			}
			if m.conv.ShowSamples() {
				m.applySample()
			} else {
				m.moveSelection(step)
			}
		case "up", "down":
			if m.conv.ShowSamples() {
				m.moveCursor(msg.String() == "down")
			} else {
				m.viewport, cmd = m.viewport.Update(msg)
			}
		default:
			m.input, cmd = m.input.Update(msg)
			m.conv = chat.ReduceConversation(m.conv, chat.InputChanged{Text: m.input.Value()})
			m.cursor = 0
		}

	case streamOpenedMsg:
		cmd = readChunk(msg.body)

	case chunkMsg:
		before := len(m.conv.Messages)
		m.conv = chat.ReduceConversation(m.conv, chat.ChunkReceived{Text: msg.text})
		if len(m.conv.Messages) > before {
			m.selected = len(m.conv.Messages) - 1
		}
		cmd = readChunk(msg.body)

	case streamEndMsg:
		if msg.err != nil {
			log.Printf("stream failed: %v", msg.err)
			m.conv = chat.ReduceConversation(m.conv, chat.StreamFailed{Err: msg.err})
		} else {
			m.conv = chat.ReduceConversation(m.conv, chat.StreamFinished{})
		}

	case speechMsg:
		cmd = m.speechReady(msg)

	case playbackDoneMsg:
		// Released handles report here too once their process is killed.
		if msg.handle == m.playback.Source && m.playback.Phase != chat.PhaseIdle {
			if msg.err != nil {
				log.Printf("audio error: %v", msg.err)
				cmd = m.dispatch(chat.PlaybackFailed{Err: msg.err})
			} else {
				cmd = m.dispatch(chat.PlaybackEnded{})
			}
		}

	default:
		m.input, cmd = m.input.Update(msg)
	}
	m.refresh()
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	if !m.conv.CanSubmit() {
		return nil
	}
	m.conv = chat.ReduceConversation(m.conv, chat.Submitted{})
	m.input.SetValue("")
	ctx, backend, history := m.ctx, m.backend, m.conv.Messages
	return func() tea.Msg {
		body, err := backend.StreamChat(ctx, history)
		if err != nil {
			return streamEndMsg{err: err}
		}
		return streamOpenedMsg{body: body}
	}
}

func readChunk(body io.ReadCloser) tea.Cmd {
	return func() tea.Msg {
		buf := make([]byte, 4096)
		for {
			n, err := body.Read(buf)
			if n > 0 {
				return chunkMsg{text: string(buf[:n]), body: body}
			}
			if err != nil {
				body.Close()
				if errors.Is(err, io.EOF) {
					return streamEndMsg{}
				}
				return streamEndMsg{err: err}
			}
		}
	}
}

// dispatch feeds the playback reducer and runs its effects in order.
func (m *Model) dispatch(ev chat.PlaybackEvent) tea.Cmd {
	var effects []chat.Effect
	m.playback, effects = chat.ReducePlayback(m.playback, ev)
	var cmds []tea.Cmd
	for _, eff := range effects {
		switch e := eff.(type) {
		case chat.Fetch:
			cmds = append(cmds, fetchSpeech(m.ctx, m.backend, e.Index, m.conv.Messages[e.Index].Content))
		case chat.Play:
			done, err := m.player.Play(e.Source)
			if err != nil {
				log.Printf("play: %v", err)
				cmds = append(cmds, m.dispatch(chat.PlaybackFailed{Err: err}))
				continue
			}
			cmds = append(cmds, waitPlayback(e.Source, done))
		case chat.Pause:
			if err := m.player.Pause(); err != nil {
				log.Printf("pause: %v", err)
			}
		case chat.Resume:
			if err := m.player.Resume(); err != nil {
				log.Printf("resume: %v", err)
			}
		case chat.Release:
			if err := m.player.Release(e.Source); err != nil {
				log.Printf("release %s: %v", e.Source, err)
			}
		}
	}
	return tea.Batch(cmds...)
}

func fetchSpeech(ctx context.Context, b Backend, index int, text string) tea.Cmd {
	return func() tea.Msg {
		audio, err := b.Speech(ctx, text)
		return speechMsg{index: index, audio: audio, err: err}
	}
}

// speechReady loads fetched audio into the player. Audio nobody is waiting
// for is dropped before it touches disk.
func (m *Model) speechReady(msg speechMsg) tea.Cmd {
	if m.playback.Phase != chat.PhaseLoading || m.playback.Index != msg.index {
		return nil
	}
	if msg.err != nil {
		log.Printf("Failed to generate speech: %v", msg.err)
		return m.dispatch(chat.FetchFailed{Index: msg.index})
	}
	h, err := m.player.Load(msg.audio)
	if err != nil {
		log.Printf("load audio: %v", err)
		return m.dispatch(chat.FetchFailed{Index: msg.index})
	}
	return m.dispatch(chat.FetchSucceeded{Index: msg.index, Source: h})
}

func waitPlayback(h chat.Handle, done <-chan error) tea.Cmd {
	return func() tea.Msg { return playbackDoneMsg{handle: h, err: <-done} }
}

func (m *Model) releaseAudio() {
	if m.playback.Source != "" {
		_ = m.player.Release(m.playback.Source)
	}
	m.playback = chat.Playback{}
}

func (m *Model) moveSelection(step int) {
	var idx []int
	for i, msg := range m.conv.Messages {
		if msg.Role == chat.RoleAssistant {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}
	pos := 0
	for i, v := range idx {
		if v == m.selected {
			pos = (i + step + len(idx)) % len(idx)
			break
		}
	}
	m.selected = idx[pos]
}

func (m *Model) filteredSamples() []int {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		out := make([]int, len(chat.SampleQuestions))
		for i := range out {
			out[i] = i
		}
		return out
	}
	texts := make([]string, len(chat.SampleQuestions))
	for i, s := range chat.SampleQuestions {
		texts[i] = s.Text
	}
	var out []int
	for _, match := range fuzzy.Find(q, texts) {
		out = append(out, match.Index)
	}
	return out
}

func (m *Model) moveCursor(down bool) {
	n := len(m.filteredSamples())
	if n == 0 {
		return
	}
	if down {
		m.cursor = (m.cursor + 1) % n
	} else {
		m.cursor = (m.cursor - 1 + n) % n
	}
}

func (m *Model) applySample() {
	samples := m.filteredSamples()
	if len(samples) == 0 {
		return
	}
	m.conv = chat.ReduceConversation(m.conv, chat.SampleSelected{Index: samples[min(m.cursor, len(samples)-1)]})
	m.input.SetValue(m.conv.Input)
	m.input.CursorEnd()
	m.cursor = 0
}

func (m *Model) copyCode() {
	if m.selected < 0 {
		m.status = "no reply selected"
		return
	}
	blocks := chat.CodeBlocks(m.conv.Messages[m.selected].Content)
	if len(blocks) == 0 {
		m.status = "no code block in this reply"
		return
	}
	last := blocks[len(blocks)-1]
	if err := clipboard.WriteAll(last.Content); err != nil {
		log.Printf("clipboard: %v", err)
		m.status = "clipboard unavailable"
		return
	}
	m.status = fmt.Sprintf("copied %s block", last.Language)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	if m.conv.Awaiting {
		m.viewport.GotoBottom()
	}
}

func (m Model) transcript() string {
	var b strings.Builder
	if m.conv.ShowSamples() {
		b.WriteString(titleStyle.Render("Hi, I'm Bunty! 👋") + "\n")
		b.WriteString(subtleStyle.Render("What can I help you with today?") + "\n\n")
		for i, idx := range m.filteredSamples() {
			s := chat.SampleQuestions[idx]
			line := fmt.Sprintf("  %s %s", s.Icon, s.Text)
			if i == m.cursor {
				line = selectedStyle.Render("› " + s.Icon + " " + s.Text)
			}
			b.WriteString(line + "\n")
		}
		return b.String()
	}
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 10))
	for i, msg := range m.conv.Messages {
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(wrap.Render(msg.Content) + "\n\n")
		case chat.RoleAssistant:
			head := assistantStyle.Render("Bunty") + " " + m.audioBadge(i)
			if i == m.selected {
				head = selectedStyle.Render("› ") + head
			}
			b.WriteString(head + "\n")
			b.WriteString(m.renderReply(msg.Content, wrap) + "\n\n")
		}
	}
	if m.conv.Awaiting && (len(m.conv.Messages) == 0 || m.conv.Messages[len(m.conv.Messages)-1].Role != chat.RoleAssistant) {
		b.WriteString(assistantStyle.Render("Bunty") + subtleStyle.Render(" is typing…") + "\n")
	}
	return b.String()
}

func (m Model) audioBadge(i int) string {
	if m.playback.Phase == chat.PhaseIdle || m.playback.Index != i {
		return subtleStyle.Render("▶")
	}
	switch m.playback.Phase {
	case chat.PhaseLoading:
		return subtleStyle.Render("…")
	case chat.PhasePlaying:
		return selectedStyle.Render("⏸")
	}
	return selectedStyle.Render("▶")
}

func (m Model) renderReply(content string, wrap lipgloss.Style) string {
	var parts []string
	for _, seg := range chat.ParseSegments(content) {
		if seg.Kind == chat.SegmentText {
			parts = append(parts, wrap.Render(seg.Content))
			continue
		}
		code, err := render.ANSI(seg.Content, seg.Language)
		if err != nil {
			code = seg.Content
		}
		parts = append(parts, codeStyle.Render(subtleStyle.Render(seg.Language)+"\n"+code))
	}
	return strings.Join(parts, "\n")
}

func (m Model) View() string {
	status := m.status
	if status == "" {
		status = "enter send · tab select/fill · ctrl+p play/pause · ctrl+y copy code · esc quit"
	}
	return m.viewport.View() + "\n" + statusStyle.Render(status) + "\n" + m.input.View()
}
