package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// Lines taken by the title, summary and help bar around the viewport.
	chromeHeight = 7
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")).Width(10)
	helpStyle  = lipgloss.NewStyle().Faint(true)
	frameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#2a3850"))
)

// TUI implements UI using Bubble Tea for the confirmation step. Plain
// reporting is delegated to a SimpleUI.
type TUI struct {
	input  io.Reader
	output io.Writer
	simple *SimpleUI
}

// NewTUI creates a new TUI.
func NewTUI(input io.Reader, output io.Writer, simple *SimpleUI) *TUI {
	return &TUI{input: input, output: output, simple: simple}
}

// DisplayProposal prints failures; successful proposals are shown by Confirm.
func (p *TUI) DisplayProposal(ctx context.Context, resp m.ProposalResponse) error {
	if resp.OK && resp.Proposal != nil && resp.Proposal.RangeKnown {
		return ctx.Err()
	}

	return p.simple.DisplayProposal(ctx, resp)
}

// DisplayApplyResult prints the outcome of an apply.
func (p *TUI) DisplayApplyResult(ctx context.Context, resp m.ApplyResponse) error {
	return p.simple.DisplayApplyResult(ctx, resp)
}

// DisplayRestore reports a restored file.
func (p *TUI) DisplayRestore(ctx context.Context, target, backup m.Path) error {
	return p.simple.DisplayRestore(ctx, target, backup)
}

// Confirm shows the proposal in a scrollable view and waits for y or n.
func (p *TUI) Confirm(ctx context.Context, resp m.ProposalResponse) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !resp.OK || resp.Proposal == nil || !resp.Proposal.RangeKnown {
		return false, nil
	}

	diff, err := UnifiedDiff(resp.Proposal)
	if err != nil {
		return false, err
	}

	width, height := defaultWidth, defaultHeight

	if f, ok := p.output.(*os.File); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			width, height = w, h
		}
	}

	model := newConfirmModel(resp, colorizeDiff(diff), width, height)

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(p.input),
		tea.WithOutput(p.output),
		tea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return false, ctx.Err()
		}

		return false, fmt.Errorf("confirmation view failed: %w", err)
	}

	confirmed, _ := final.(confirmModel)

	return confirmed.accepted, nil
}

// confirmModel is the Bubble Tea model asking whether to apply a proposal.
type confirmModel struct {
	resp     m.ProposalResponse
	viewport viewport.Model
	accepted bool
	done     bool
}

func newConfirmModel(resp m.ProposalResponse, diff string, width, height int) confirmModel {
	vp := viewport.New(max(width-2, 20), max(height-chromeHeight, 3))
	vp.SetContent(diff)

	return confirmModel{resp: resp, viewport: vp}
}

func (cm confirmModel) Init() tea.Cmd {
	return nil
}

func (cm confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cm.viewport.Width = max(msg.Width-2, 20)
		cm.viewport.Height = max(msg.Height-chromeHeight, 3)

		return cm, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			cm.accepted = true
			cm.done = true

			return cm, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			cm.done = true

			return cm, tea.Quit
		}
	}

	var cmd tea.Cmd
	cm.viewport, cmd = cm.viewport.Update(msg)

	return cm, cmd
}

func (cm confirmModel) View() string {
	if cm.done {
		return ""
	}

	p := cm.resp.Proposal

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Proposed fix for %s", cm.resp.IssueID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s:%d-%d (%s)\n", labelStyle.Render("File"), p.File, p.StartLine, p.EndLine, p.Language)
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Before"), p.AccessibilityBefore)
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("After"), p.AccessibilityAfter)
	b.WriteString(frameStyle.Render(cm.viewport.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("y: apply | n/q: skip | ↑/↓: scroll  %3.f%%", cm.viewport.ScrollPercent()*100)))

	return b.String()
}
