package cli

import (
	"docgen/internal/engine/callgraph"
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelIssues {
			m.mode = panelNodes
		} else {
			m.mode = panelIssues
		}
		return m, nil
	case "t":
		m.showTrend = !m.showTrend
		return m, nil
	}

	if m.mode != panelNodes {
		var cmd tea.Cmd
		m.issueList, cmd = m.issueList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter":
		if n, ok := selectedNode(m); ok {
			m.hasDetails = true
			m.detailsKey = n.Key
			m.selectedCallee = 0
		}
		return m, nil
	case "esc", "backspace":
		m.hasDetails = false
		m.selectedCallee = 0
		return m, nil
	case "j":
		if m.hasDetails {
			if m.selectedCallee < len(m.graph.Callees(m.detailsKey))-1 {
				m.selectedCallee++
			}
			return m, nil
		}
	case "k":
		if m.hasDetails {
			if m.selectedCallee > 0 {
				m.selectedCallee--
			}
			return m, nil
		}
	case "o":
		target, ok := selectedSourceTarget(m)
		if !ok {
			m.sourceJumpStatus = statusStyle.Render("No source target available.")
			return m, nil
		}
		return m, jumpToSourceCmd(target)
	}

	var cmd tea.Cmd
	m.nodeList, cmd = m.nodeList.Update(msg)
	return m, cmd
}

type sourceTarget struct {
	file string
	line int
}

// selectedSourceTarget prefers the highlighted callee in detail view and
// falls back to the selected node. External nodes have no source.
func selectedSourceTarget(m model) (sourceTarget, bool) {
	if m.graph == nil {
		return sourceTarget{}, false
	}
	var n callgraph.CallNode
	var ok bool
	if m.hasDetails {
		callees := m.graph.Callees(m.detailsKey)
		if m.selectedCallee >= 0 && m.selectedCallee < len(callees) {
			n, ok = m.graph.Registry.Node(callees[m.selectedCallee])
		}
	} else {
		n, ok = selectedNode(m)
	}
	if !ok || n.Kind != callgraph.NodeLocal || n.File == "" {
		return sourceTarget{}, false
	}
	return sourceTarget{file: n.File, line: n.Span.Start.Line}, true
}

func jumpToSourceCmd(target sourceTarget) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	args := []string{target.file}
	if strings.Contains(editor, "vim") || strings.Contains(editor, "nvim") || strings.HasSuffix(editor, "/vi") || editor == "vi" {
		args = []string{fmt.Sprintf("+%d", target.line), target.file}
	}
	cmd := exec.Command(editor, args...)
	label := fmt.Sprintf("%s:%d", target.file, target.line)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: label, err: err}
	})
}
