package cli

import (
	"docgen/internal/data/history"
	"docgen/internal/engine/callgraph"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type item struct {
	title, desc string
	key         callgraph.NodeKey
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelIssues panelMode = iota
	panelNodes
)

type model struct {
	issueList   list.Model
	nodeList    list.Model
	mode        panelMode
	graph       *callgraph.CallGraph
	cycles      [][]callgraph.NodeKey
	buildErr    error
	routeCount  int
	trendReport *history.TrendReport
	showTrend   bool
	lastUpdate  time.Time

	hasDetails       bool
	detailsKey       callgraph.NodeKey
	selectedCallee   int
	sourceJumpStatus string
}

type updateMsg struct {
	graph      *callgraph.CallGraph
	cycles     [][]callgraph.NodeKey
	routeCount int
	err        error
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.issueList.SetSize(width, height)
		m.nodeList.SetSize(width, height)
	case updateMsg:
		m.lastUpdate = time.Now()
		m.buildErr = msg.err
		if msg.err == nil {
			m.graph = msg.graph
			m.cycles = msg.cycles
			m.routeCount = msg.routeCount
		}
		m.issueList.SetItems(issueItems(m))
		m.nodeList.SetItems(nodeItems(m.graph))
		if m.hasDetails && m.graph != nil {
			if _, ok := m.graph.Registry.Lookup(m.detailsKey); !ok {
				m.hasDetails = false
			} else if n := len(m.graph.Callees(m.detailsKey)); m.selectedCallee >= n {
				m.selectedCallee = 0
			}
		}
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Source jump failed: %v", msg.err))
		} else {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Opened source: %s", msg.target))
		}
	}

	var cmd tea.Cmd
	if m.mode == panelIssues {
		m.issueList, cmd = m.issueList.Update(msg)
	} else {
		m.nodeList, cmd = m.nodeList.Update(msg)
	}
	return m, cmd
}

func issueItems(m model) []list.Item {
	items := []list.Item{}
	if m.buildErr != nil {
		items = append(items, item{title: "Build Failed", desc: m.buildErr.Error()})
	}
	for _, c := range m.cycles {
		keys := make([]string, 0, len(c))
		for _, k := range c {
			keys = append(keys, string(k))
		}
		items = append(items, item{title: "Recursive Call Chain", desc: strings.Join(keys, " -> "), key: c[0]})
	}
	return items
}

func nodeItems(cg *callgraph.CallGraph) []list.Item {
	if cg == nil {
		return nil
	}
	items := make([]list.Item, 0, cg.Graph.NodeCount())
	for _, n := range cg.Nodes() {
		desc := fmt.Sprintf("%s | calls=%d", n.Kind, len(cg.Callees(n.Key)))
		if n.Kind == callgraph.NodeLocal {
			desc = fmt.Sprintf("%s:%d | calls=%d", n.File, n.Span.Start.Line, len(cg.Callees(n.Key)))
		}
		items = append(items, item{title: string(n.Key), desc: desc, key: n.Key})
	}
	return items
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v", m.lastUpdate.Format("15:04:05")))
	if m.graph != nil {
		status = statusStyle.Render(fmt.Sprintf("Last update: %v | %d nodes | %d edges | %d routes",
			m.lastUpdate.Format("15:04:05"), m.graph.Graph.NodeCount(), m.graph.Graph.EdgeCount(), m.routeCount))
	}

	var summary string
	switch {
	case m.buildErr != nil:
		summary = cycleStyle.Render("Build failed")
	case len(m.cycles) == 0:
		summary = successStyle.Render("No recursion")
	default:
		summary = warnStyle.Render(fmt.Sprintf("%d recursive chains", len(m.cycles)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle.MarginLeft(2).Render("Call Graph Monitor"), status, summary)
	help := renderHelp(m)

	body := m.issueList.View()
	if m.mode == panelNodes {
		body = renderNodePanel(m)
	}
	if m.showTrend {
		body += "\n\n" + renderTrendOverlay(m.trendReport)
	}
	if m.sourceJumpStatus != "" {
		body += "\n\n" + m.sourceJumpStatus
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func initialModel(trendReport *history.TrendReport) model {
	issueList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	issueList.Title = "Issues"
	issueList.SetShowStatusBar(false)
	issueList.SetFilteringEnabled(true)

	nodeList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	nodeList.Title = "Call Graph Explorer"
	nodeList.SetShowStatusBar(false)
	nodeList.SetFilteringEnabled(true)

	return model{
		issueList:   issueList,
		nodeList:    nodeList,
		mode:        panelIssues,
		trendReport: trendReport,
		lastUpdate:  time.Now(),
	}
}
