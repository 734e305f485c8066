// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/NolanBrad/Packit/pkg/pakit"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	monitorShowAll bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live frame monitor with statistics",
	Long: `Monitor a Packit byte stream in a terminal UI.

Shows arriving frames in a scrollable log alongside live statistics:
frame and error rates, per-error counters, and sequence-gap detection
based on the COUNT field.

By default only errors and gaps are logged; --show-all logs every frame.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowAll, "show-all", false, "Log all frames (not just errors and gaps)")
}

// Log entry severities
const (
	entryInfo = iota
	entryWarn
	entryError
)

type monitorLogEntry struct {
	timestamp time.Time
	message   string
	severity  int
}

type monitorModel struct {
	connInfo string
	showAll  bool
	stats    *pakit.Statistics
	entries  []monitorLogEntry
	maxLog   int
	vp       viewport.Model
	ready    bool
	width    int
	height   int
	quitting bool
	readErr  error
}

// Messages
type monitorTickMsg time.Time

type frameMsg struct {
	typeID  uint16
	count   uint16
	size    uint16
	payload string // formatted, the borrowed view is already gone
}

type frameErrMsg struct {
	err error
}

type bytesMsg struct {
	n int
}

type readErrMsg struct {
	err error
}

func initialMonitorModel(connInfo string, showAll bool) monitorModel {
	return monitorModel{
		connInfo: connInfo,
		showAll:  showAll,
		stats:    pakit.NewStatistics(),
		maxLog:   500,
		width:    80,
		height:   24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.entries = nil
			m.stats.Reset()
			m.refreshViewport()
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logHeight := m.height - 10
		if logHeight < 5 {
			logHeight = 5
		}
		if !m.ready {
			m.vp = viewport.New(m.width-4, logHeight)
			m.ready = true
		} else {
			m.vp.Width = m.width - 4
			m.vp.Height = logHeight
		}
		m.refreshViewport()

	case monitorTickMsg:
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case frameMsg:
		gapsBefore := m.stats.SequenceGaps
		m.stats.RecordFrame(msg.count)
		if m.stats.SequenceGaps > gapsBefore {
			m.addEntry(fmt.Sprintf("SEQUENCE GAP before count=%d", msg.count), entryWarn)
		}
		if m.showAll {
			line := fmt.Sprintf("type=0x%04X count=%d size=%d", msg.typeID, msg.count, msg.size)
			if msg.payload != "" {
				line += " " + msg.payload
			}
			m.addEntry(line, entryInfo)
		}

	case frameErrMsg:
		m.stats.RecordError(msg.err)
		m.addEntry(msg.err.Error(), entryError)

	case bytesMsg:
		m.stats.RecordBytes(msg.n)

	case readErrMsg:
		m.readErr = msg.err
		m.addEntry(fmt.Sprintf("read error: %v", msg.err), entryError)
	}

	return m, nil
}

func (m *monitorModel) addEntry(message string, severity int) {
	m.entries = append(m.entries, monitorLogEntry{
		timestamp: time.Now(),
		message:   message,
		severity:  severity,
	})
	if len(m.entries) > m.maxLog {
		m.entries = m.entries[len(m.entries)-m.maxLog:]
	}
	m.refreshViewport()
}

func (m *monitorModel) refreshViewport() {
	if !m.ready {
		return
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var b strings.Builder
	for _, e := range m.entries {
		ts := timeStyle.Render(e.timestamp.Format("15:04:05.000"))
		switch e.severity {
		case entryError:
			b.WriteString(fmt.Sprintf("%s %s\n", ts, errorStyle.Render("✗ "+e.message)))
		case entryWarn:
			b.WriteString(fmt.Sprintf("%s %s\n", ts, warnStyle.Render("! "+e.message)))
		default:
			b.WriteString(fmt.Sprintf("%s %s\n", ts, e.message))
		}
	}

	atBottom := m.vp.AtBottom()
	m.vp.SetContent(b.String())
	if atBottom {
		m.vp.GotoBottom()
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	if !m.ready {
		return "Initializing...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("PACKIT - FRAME MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'q' to quit, 'c' to clear", m.connInfo)))
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	totalErrors := m.stats.InvalidSOP + m.stats.SizeTooLarge + m.stats.Overflows
	var validPercent float64
	if m.stats.Frames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.Frames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Frames)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", totalErrors)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Gaps:"), valueStyle.Render(fmt.Sprintf("%d (%d dropped)", m.stats.SequenceGaps, m.stats.DroppedFrames)),
		labelStyle.Render("Bytes:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.BytesReceived)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Frame Rate:"), valueStyle.Render(fmt.Sprintf("%.1f/s", m.stats.FrameRate)),
		labelStyle.Render("Error Rate:"), valueStyle.Render(fmt.Sprintf("%.1f/s", m.stats.ErrorRate)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Frames:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.vp.View()))

	return s.String()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	m := initialMonitorModel(connInfo, monitorShowAll)
	p := tea.NewProgram(m)

	// Reader goroutine feeds the receiver and pumps messages into the TUI.
	// All statistics mutation happens in Update, on the TUI side.
	go func() {
		receiver := pakit.NewReceiver()
		buf := make([]byte, 256)

		for {
			n, err := conn.Read(buf)
			if err != nil {
				p.Send(readErrMsg{err: err})
				return
			}
			p.Send(bytesMsg{n: n})

			pos := 0
			for pos < n {
				var complete bool
				pos, complete, err = receiver.ReceiveBuffer(buf[:n], pos)
				if err != nil {
					p.Send(frameErrMsg{err: err})
					continue
				}
				if !complete {
					continue
				}

				packet, ok := receiver.CompletedPacket()
				if !ok {
					continue
				}

				var payload string
				if packet.Size() > 0 {
					payload = strings.TrimSpace(pakit.FormatPayload(packet.Payload()))
				}
				p.Send(frameMsg{
					typeID:  packet.TypeID(),
					count:   packet.Count(),
					size:    packet.Size(),
					payload: payload,
				})
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}
