// Package tui is the local presentation adapter: a Bubble Tea program
// that polls engine snapshots on a render tick and relays the player
// intents back.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/chickenrun/internal/game"
)

// tickMsg drives the render loop.
type tickMsg time.Time

const (
	tickInterval = 100 * time.Millisecond
	noticeFor    = 3 * time.Second
)

// Model is the Bubble Tea model for the game.
type Model struct {
	engine *game.Engine
	logger *log.Logger

	betInput textinput.Model
	snap     game.Snapshot

	notice    string
	noticeErr bool
	noticeAt  time.Time

	width    int
	height   int
	quitting bool
}

// NewModel builds the TUI around a running engine.
func NewModel(engine *game.Engine, logger *log.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "bet amount"
	ti.Focus()
	ti.CharLimit = 10
	ti.Width = 14
	ti.Prompt = "$ "

	return &Model{
		engine:   engine,
		logger:   logger.WithPrefix("tui"),
		betInput: ti,
		snap:     engine.Snapshot(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.engine.Snapshot()
		if m.notice != "" && time.Since(m.noticeAt) > noticeFor {
			m.notice = ""
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			m.submit()
			return m, nil
		case "ctrl+r":
			m.engine.ResetProgress()
			m.setNotice("progress reset", false)
			return m, nil
		case "ctrl+a":
			m.engine.AddTestBalance()
			m.setNotice(fmt.Sprintf("+$%d test balance", game.TestCredit), false)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.betInput, cmd = m.betInput.Update(msg)
	return m, cmd
}

// submit routes enter to the intent that fits the current phase: place
// the typed bet while betting, cash out while running.
func (m *Model) submit() {
	switch m.snap.Phase {
	case game.Betting:
		amount, err := strconv.ParseFloat(strings.TrimSpace(m.betInput.Value()), 64)
		if err != nil {
			m.setNotice("enter a bet amount", true)
			return
		}
		if err := m.engine.PlaceBet(amount); err != nil {
			m.setNotice(err.Error(), true)
			return
		}
		m.betInput.SetValue("")
		m.setNotice(fmt.Sprintf("bet placed: $%.2f", amount), false)

	case game.Running:
		if err := m.engine.CashOut(); err != nil {
			m.setNotice(err.Error(), true)
			return
		}
		snap := m.engine.Snapshot()
		m.setNotice(fmt.Sprintf("cashed out at %.1fx for $%.2f", snap.CashoutMult, snap.CashoutAmount), false)

	default:
		m.setNotice("wrong phase", true)
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
	m.noticeAt = time.Now()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.snap

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("CHICKEN RUN"))
	b.WriteString("  ")
	b.WriteString(PhaseStyle.Render(m.phaseLine(s)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLanes(s))
	b.WriteString("\n\n")

	b.WriteString(m.renderPlayer(s))
	b.WriteString("\n")

	if m.notice != "" {
		st := SuccessStyle
		if m.noticeErr {
			st = ErrorStyle
		}
		b.WriteString(st.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderBettors(s))
	b.WriteString("\n")

	b.WriteString(m.renderStats(s))
	b.WriteString("\n")

	b.WriteString(m.renderHistory(s))
	b.WriteString("\n\n")

	b.WriteString(InfoStyle.Render("enter: bet/cashout  ctrl+a: +balance  ctrl+r: reset  esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) phaseLine(s game.Snapshot) string {
	switch s.Phase {
	case game.Betting:
		return fmt.Sprintf("ROUND %d — PLACE YOUR BETS (%ds)", s.Round, int(s.PhaseEndsIn.Seconds())+1)
	case game.Resolving:
		return fmt.Sprintf("ROUND %d — CALCULATING (%ds)", s.Round, int(s.PhaseEndsIn.Seconds())+1)
	case game.Running:
		mult := game.Multiplier(s.CurrentLane)
		if s.Splat {
			return fmt.Sprintf("ROUND %d — CRASHED @ %.1fx", s.Round, mult)
		}
		return fmt.Sprintf("ROUND %d — LIVE @ %.1fx", s.Round, mult)
	case game.Settling:
		if s.Splat {
			return fmt.Sprintf("ROUND %d — CRASHED @ %.1fx", s.Round, s.FinalMult)
		}
		return fmt.Sprintf("ROUND %d — SAFE @ %.1fx", s.Round, s.FinalMult)
	default:
		return fmt.Sprintf("ROUND %d", s.Round)
	}
}

// renderLanes draws the track. The chicken sits in the lane it is
// crossing or resting on; a crash replaces it with a splat marker.
func (m *Model) renderLanes(s game.Snapshot) string {
	cells := make([]string, 0, game.LaneCount+2)
	cells = append(cells, LaneStyle.Render("START"))
	for lane := 1; lane <= game.LaneCount; lane++ {
		label := fmt.Sprintf(" %.1fx ", game.Multiplier(lane))
		switch {
		case lane == s.CurrentLane && s.Splat:
			cells = append(cells, CrashStyle.Render("✗"+label))
		case lane == s.CurrentLane:
			cells = append(cells, CurrentLaneStyle.Render("🐔"+label))
		case lane < s.CurrentLane:
			cells = append(cells, SuccessStyle.Render(label))
		default:
			cells = append(cells, LaneStyle.Render(label))
		}
	}
	cells = append(cells, LaneStyle.Render("FINISH"))
	track := strings.Join(cells, "│")

	if s.Crossing {
		track += fmt.Sprintf("\n%s", InfoStyle.Render(progressBar(s.CrossProgress, 32)))
	}
	return track
}

func progressBar(p float64, width int) string {
	filled := int(p * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func (m *Model) renderPlayer(s game.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "balance %s", StatStyle.Render(fmt.Sprintf("$%.2f", s.Balance)))
	switch {
	case s.CashedOut:
		fmt.Fprintf(&b, "   cashed out %s", SuccessStyle.Render(fmt.Sprintf("+$%.2f @ %.1fx", s.CashoutAmount, s.CashoutMult)))
	case s.HasBet && s.Splat:
		fmt.Fprintf(&b, "   bet %s", CrashStyle.Render(fmt.Sprintf("-$%.2f crashed", s.Bet)))
	case s.HasBet:
		fmt.Fprintf(&b, "   bet $%.2f riding", s.Bet)
	case s.Phase == game.Betting:
		fmt.Fprintf(&b, "   %s", m.betInput.View())
	}
	return b.String()
}

func (m *Model) renderBettors(s game.Snapshot) string {
	if len(s.Bettors) == 0 {
		return InfoStyle.Render("no bettors yet")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d players\n", len(s.Bettors))
	for _, bt := range s.Bettors {
		name := bt.Name
		if bt.IsPlayer {
			name = "★ YOU"
		}
		var status string
		switch bt.Status {
		case game.CashedOut:
			status = SuccessStyle.Render(fmt.Sprintf("+$%.2f @ %.1fx", bt.CashoutAmount, bt.CashoutMult))
		case game.Crashed:
			status = CrashStyle.Render("crashed")
		default:
			status = InfoStyle.Render("waiting")
		}
		fmt.Fprintf(&b, "  %-14s $%-8.0f %s\n", name, bt.Stake, status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderStats(s game.Snapshot) string {
	return StatStyle.Render(fmt.Sprintf(
		"pot $%.0f  pool $%.0f  platform $%.0f  provider $%.0f  rollover $%.0f  bonus $%.0f\nbet $%.0f  win $%.0f  loss $%.0f  net $%.0f",
		s.Ledger.Pot, s.Ledger.Pool, s.Ledger.PlatformProfit, s.Ledger.ProviderFee, s.Rollover, s.Ledger.Bonus,
		s.TotalBet, s.TotalWin, s.TotalLoss, s.TotalWin-s.TotalLoss,
	))
}

func (m *Model) renderHistory(s game.Snapshot) string {
	if len(s.History) == 0 {
		return InfoStyle.Render("no rounds yet")
	}
	chips := make([]string, 0, len(s.History))
	// Newest first.
	for i := len(s.History) - 1; i >= 0; i-- {
		mult := s.History[i]
		chips = append(chips, historyStyle(mult).Render(fmt.Sprintf("%.1fx", mult)))
	}
	return strings.Join(chips, " ")
}

// Run starts the program and blocks until the player quits.
func Run(engine *game.Engine, logger *log.Logger) error {
	p := tea.NewProgram(NewModel(engine, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
