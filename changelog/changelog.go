// Package changelog downloads the project changelog and renders it for the
// terminal.
package changelog

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/glamour"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
	"github.com/muesli/termenv"
)

const URL = "https://raw.githubusercontent.com/minecraftwithtwink/Modpack-Updater/main/CHANGELOG.md"

// DefaultStyle matches the dark background the TUI paints.
const DefaultStyle = "dark"

// maxSize bounds how much of the response is read.
const maxSize = 4 << 20

type Option func(*Fetcher)

func WithURL(url string) Option {
	return func(f *Fetcher) { f.url = url }
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.http = c }
}

// WithWidth sets the word-wrap column of the rendered output.
func WithWidth(width int) Option {
	return func(f *Fetcher) { f.width = width }
}

// WithStyle picks a glamour standard style ("dark", "light", "notty", ...).
func WithStyle(style string) Option {
	return func(f *Fetcher) { f.style = style }
}

type Fetcher struct {
	url   string
	http  *http.Client
	width int
	style string
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{url: URL, http: http.DefaultClient, width: 80, style: DefaultStyle}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StyleFor picks the style for a terminal with color profile p. It only
// looks at p, so it is safe to call while a program owns the terminal.
func StyleFor(p termenv.Profile) string {
	if p == termenv.Ascii {
		return "notty"
	}
	return DefaultStyle
}

// Fetch returns the raw markdown.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download changelog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download changelog: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		return "", fmt.Errorf("failed to read changelog: %w", err)
	}
	return string(data), nil
}

// Run is the changelog job: fetch, then render.
func (f *Fetcher) Run(ctx context.Context, r job.Reporter) (string, error) {
	r.Update("Fetching changelog...", 0)
	md, err := f.Fetch(ctx)
	if err != nil {
		log.WarningLog.Printf("changelog: %v", err)
		return "", err
	}
	r.Update("Rendering changelog...", 0.5)
	return Render(md, f.width, f.style)
}

// Render formats markdown for a terminal of the given width.
func Render(markdown string, width int, style string) (string, error) {
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("could not create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("could not render markdown: %w", err)
	}
	return out, nil
}
