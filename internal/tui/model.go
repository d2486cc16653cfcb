package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"drive2photos/internal/domain"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhaseScanning Phase = iota
	PhaseUploading
	PhaseDone
	PhaseError
)

// Messages sent by the migration goroutine
type (
	ScanProgressMsg struct {
		Folders int
		Photos  int
		Path    string
	}
	ScanDoneMsg struct {
		Result domain.ScanResult
	}
	AlbumMsg struct {
		Album domain.Album
	}
	UploadStartMsg struct {
		Index int
		Total int
		File  string
	}
	UploadResultMsg struct {
		Index  int
		Total  int
		Result domain.UploadResult
	}
	RunDoneMsg struct {
		Report *domain.RunReport
	}
	ErrorMsg struct {
		Err error
	}
	tickMsg time.Time
)

// Config for the TUI
type Config struct {
	Source     string
	OutputDir  string
	UploadOnly bool
	Verbose    bool
	// Cancel stops the running migration when the user quits early.
	Cancel context.CancelFunc
}

// Model is the main TUI model
type Model struct {
	config   Config
	Phase    Phase
	spinner  spinner.Model
	progress progress.Model

	foldersScanned int
	photosFound    int
	currentPath    string
	scan           *domain.ScanResult

	album       domain.Album
	uploadIndex int
	uploadTotal int
	currentFile string
	counts      domain.RunCounts
	lastFailure string

	Report   *domain.RunReport
	Err      error
	Quitting bool
	width    int
}

func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	phase := PhaseScanning
	if cfg.UploadOnly {
		phase = PhaseUploading
	}
	return Model{
		config:   cfg,
		Phase:    phase,
		spinner:  s,
		progress: p,
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m Model) running() bool {
	return m.Phase == PhaseScanning || m.Phase == PhaseUploading
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(min(msg.Width-20, 60), 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.running() && m.config.Cancel != nil {
				m.config.Cancel()
			}
			m.Quitting = true
			return m, tea.Quit
		case "enter":
			if !m.running() {
				return m, tea.Quit
			}
		}

	case ScanProgressMsg:
		m.foldersScanned = msg.Folders
		m.photosFound = msg.Photos
		m.currentPath = msg.Path
		return m, nil

	case ScanDoneMsg:
		result := msg.Result
		m.scan = &result
		m.photosFound = len(result.Assets)
		return m, nil

	case AlbumMsg:
		m.Phase = PhaseUploading
		m.album = msg.Album
		return m, nil

	case UploadStartMsg:
		m.Phase = PhaseUploading
		m.uploadIndex = msg.Index - 1
		m.uploadTotal = msg.Total
		m.currentFile = msg.File
		return m, nil

	case UploadResultMsg:
		m.uploadIndex = msg.Index
		m.uploadTotal = msg.Total
		switch msg.Result.Status {
		case domain.StatusSuccess:
			m.counts.Uploaded++
		case domain.StatusSkippedDuplicate:
			m.counts.Skipped++
		default:
			m.counts.Failed++
			m.lastFailure = fmt.Sprintf("%s: %s", msg.Result.Path, msg.Result.Error)
		}
		return m, nil

	case RunDoneMsg:
		m.Phase = PhaseDone
		m.Report = msg.Report
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.running() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.running() {
			var cmds []tea.Cmd
			if m.Phase == PhaseUploading && m.uploadTotal > 0 {
				cmds = append(cmds, m.progress.SetPercent(m.percent()))
			}
			cmds = append(cmds, tickCmd())
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) percent() float64 {
	if m.uploadTotal == 0 {
		return 0
	}
	return float64(m.uploadIndex) / float64(m.uploadTotal)
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseScanning:
		b.WriteString(m.renderScanning())
	case PhaseUploading:
		b.WriteString(m.renderScanSummary())
		b.WriteString(m.renderUploading())
	case PhaseDone:
		b.WriteString(m.renderScanSummary())
		b.WriteString(m.renderCompletion())
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(iconPhoto + " drive2photos")
	subtitle := subtitleStyle.Render("Google Drive to Google Photos migration")
	dim := lipgloss.NewStyle().Foreground(dimTextColor)

	lines := []string{title, subtitle, ""}
	if m.config.Source != "" {
		lines = append(lines, dim.Render(fmt.Sprintf("%s Source: %s", iconFolder, m.config.Source)))
	}
	if m.config.OutputDir != "" {
		lines = append(lines, dim.Render(fmt.Sprintf("%s Output: %s", iconFolder, m.config.OutputDir)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderScanning() string {
	count := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	s := fmt.Sprintf("%s Scanning Google Drive...\n\n  %s  %s\n  %s  %s",
		m.spinner.View(),
		statLabelStyle.Render("Folders scanned:"), count.Render(fmt.Sprint(m.foldersScanned)),
		statLabelStyle.Render("Photos found:"), count.Render(fmt.Sprint(m.photosFound)),
	)
	if m.currentPath != "" {
		s += fmt.Sprintf("\n\n  %s %s", iconArrow, pathStyle.Render(m.currentPath))
	}
	return s
}

func (m Model) renderScanSummary() string {
	if m.scan == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Scan"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Photos found:"),
		statValueStyle.Render(fmt.Sprintf("%d (%s)", len(m.scan.Assets), humanize.Bytes(m.scan.TotalSize())))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Empty folders:"),
		statValueStyle.Render(fmt.Sprint(len(m.scan.EmptyFolders)))))
	if m.Phase == PhaseDone && m.Report == nil {
		b.WriteString("\n")
		b.WriteString(successStyle.Render(iconSuccess + " Scan complete"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderUploading() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Uploading"))
	b.WriteString("\n\n")
	if m.album.Title != "" {
		b.WriteString(fmt.Sprintf("  %s  %s\n\n", statLabelStyle.Render("Album:"), statValueStyle.Render(m.album.Title)))
	}

	percent := m.percent()
	b.WriteString(fmt.Sprintf("  %s Uploading...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))

	count := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	dim := lipgloss.NewStyle().Foreground(dimTextColor)
	b.WriteString(fmt.Sprintf("  %s %s\n",
		count.Render(fmt.Sprintf("%d/%d photos", m.uploadIndex, m.uploadTotal)),
		dim.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))
	b.WriteString(m.renderCounts())

	if m.currentFile != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", iconArrow, fileNameStyle.Render(m.currentFile)))
	}
	if m.config.Verbose && m.lastFailure != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", errorStyle.Render(iconError), warningStyle.Render(m.lastFailure)))
	}
	return b.String()
}

func (m Model) renderCounts() string {
	return fmt.Sprintf("\n  %s  %s\n  %s  %s\n  %s  %s\n",
		statLabelStyle.Render("Uploaded:"), successStyle.Render(fmt.Sprintf("%s %d", iconSuccess, m.counts.Uploaded)),
		statLabelStyle.Render("Skipped (duplicates):"), skippedStyle.Render(fmt.Sprintf("%s %d", iconSkipped, m.counts.Skipped)),
		statLabelStyle.Render("Failed:"), failedStyle(m.counts.Failed).Render(fmt.Sprintf("%s %d", iconError, m.counts.Failed)),
	)
}

func (m Model) renderCompletion() string {
	if m.Report == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Upload Complete"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Album:"), statValueStyle.Render(m.Report.Album.Title)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Run ID:"), dateStyle.Render(m.Report.RunID)))
	b.WriteString(m.renderCounts())
	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", m.Err.Error()))

	return highlightBoxStyle.
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhaseScanning:
		help = "Press q to abort the scan"
	case PhaseUploading:
		help = "Press q to stop after the current photo"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}
