// Package stepper is an interactive single-step debugger for the emulator.
package stepper

import (
	"bytes"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
)

const (
	RUN_LIMIT      = 100000 // Most instructions a single (r)un will execute.
	HISTORY_LENGTH = 10     // Instructions shown in the history box.
	MEMORY_WINDOW  = 12     // Bytes shown in the memory box.
)

type model struct {
	emu    *emulator.Emulator
	output *bytes.Buffer

	history []string
	done    bool
	err     error
}

// InitialModel wraps an emulator that has already been reset. The
// emulator's tapes are redirected into the model's output box.
func InitialModel(emu *emulator.Emulator) model {
	output := &bytes.Buffer{}
	emu.Numeric.Output = output
	emu.Character.Output = output

	return model{
		emu:    emu,
		output: output,
		done:   emu.Cpu.Halted,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s", " ", "space":
			m.step()
		case "r":
			for range RUN_LIMIT {
				if m.done || m.err != nil {
					break
				}
				m.step()
			}
		}
	}
	return m, nil
}

// step executes one instruction, recording it in the history.
func (m *model) step() {
	if m.done || m.err != nil {
		return
	}

	pc := m.emu.Cpu.Pc
	code := m.emu.Code()
	here := fmt.Sprintf("%3d: %v", pc, code)

	m.done, m.err = m.emu.Tick()

	// Mark control transfers that left the straight-line path.
	if m.err == nil && code.Op.SetsPc() && m.emu.Cpu.Pc != pc+code.Width() {
		here += fmt.Sprintf(" -> %d", m.emu.Cpu.Pc)
	}

	m.history = append(m.history, here)
	if len(m.history) > HISTORY_LENGTH {
		m.history = m.history[len(m.history)-HISTORY_LENGTH:]
	}
}

func (m model) buildRegisterState() string {
	var state strings.Builder
	c := m.emu.Cpu
	for n, value := range c.Register {
		name := fmt.Sprintf("r%d", n)
		if n == cpu.REG_SP {
			name = "sp"
		}
		fmt.Fprintf(&state, "%s: %3d 0x%02x\n", name, value, value)
	}
	fmt.Fprintf(&state, "pc: %3d 0x%02x\n", c.Pc, c.Pc)
	fmt.Fprintf(&state, "fl: L%d G%d E%d\n",
		(c.Flags&cpu.FLAG_LT)>>2, (c.Flags&cpu.FLAG_GT)>>1, c.Flags&cpu.FLAG_EQ)
	fmt.Fprintf(&state, "ticks: %d", c.Ticks)
	return state.String()
}

func (m model) buildInstructionHistory() string {
	var state strings.Builder
	curr := len(m.history) - 1
	for i, inst := range m.history {
		if curr != i {
			fmt.Fprintf(&state, "   %s\n", inst)
		} else {
			fmt.Fprintf(&state, "*  %s\n", inst)
		}
	}
	return state.String()
}

func (m model) buildMemoryState() string {
	var state strings.Builder
	c := m.emu.Cpu
	start := c.Pc - MEMORY_WINDOW/2
	for addr, value := range c.Memory.Window(start, MEMORY_WINDOW) {
		line := fmt.Sprintf("%3d  %3d  0x%02x  %s", addr, value, value, byteToAscii(value))
		switch addr {
		case c.Pc:
			line = pcStyle.Render("-> " + line)
		case c.Register[cpu.REG_SP]:
			line = "sp " + line
		default:
			line = "   " + line
		}
		state.WriteString(line + "\n")
	}
	return state.String()
}

func byteToAscii(value byte) string {
	if value >= 32 && value <= 126 {
		return string(rune(value))
	}
	return "."
}

func (m model) buildStatus() string {
	switch {
	case m.err != nil:
		return errStyle.Render(m.err.Error())
	case m.done:
		return "halted"
	}
	return "(s)tep (r)un (q)uit"
}

func (m model) View() string {
	title := titleStyle.
		Align(lipgloss.Left).
		Render("LS-8 stepper")

	regContent := titleStyle.Render("Registers") + "\n" + boxStyle.Render(m.buildRegisterState())
	instContent := titleStyle.Render("Instruction History") + "\n" + boxStyle.Render(m.buildInstructionHistory())
	memContent := titleStyle.Render("Memory") + "\n" + boxStyle.Render(m.buildMemoryState())
	outContent := titleStyle.Render("Output") + "\n" + boxStyle.Render(m.output.String())

	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, regContent, instContent, memContent, outContent)

	return lipgloss.JoinVertical(lipgloss.Left, title, mainArea, m.buildStatus())
}

// StartUI runs the stepper until the user quits.
func StartUI(emu *emulator.Emulator) (err error) {
	p := tea.NewProgram(InitialModel(emu), tea.WithAltScreen())
	_, err = p.Run()
	return
}
