// Package terminal adapts the account page to a command line: the page is
// printed, notices are written as lines and confirmation is read from the
// input.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dangun/myaccount/internal/mypage"
)

var labels = map[mypage.Field]string{
	mypage.FieldEmail:    "Email",
	mypage.FieldNickname: "Nickname",
	mypage.FieldStreet:   "Street",
	mypage.FieldDetail:   "Detail",
	mypage.FieldZipcode:  "Zipcode",
}

// Page is a mypage.Document, Notifier and Navigator writing to out.
type Page struct {
	mu      sync.Mutex
	out     io.Writer
	values  map[mypage.Field]string
	heading string
	target  string
}

// NewPage creates an empty page printing to out.
func NewPage(out io.Writer) *Page {
	return &Page{out: out, values: make(map[mypage.Field]string)}
}

func (p *Page) Value(f mypage.Field) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[f]
}

func (p *Page) SetValue(f mypage.Field, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[f] = v
}

func (p *Page) SetHeading(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heading = text
}

func (p *Page) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = make(map[mypage.Field]string)
	p.heading = ""
}

// Notify prints the notice on its own line, prefixed by its kind.
func (p *Page) Notify(_ context.Context, n mypage.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s\n", n.Kind, n.Text)
}

// Navigate prints where the user is sent next.
func (p *Page) Navigate(_ context.Context, target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = target
	fmt.Fprintf(p.out, "-> %s\n", target)
}

// Target is the last navigation target, or "" if the page was not left.
func (p *Page) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Render prints the heading and every field.
func (p *Page) Render() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.heading != "" {
		fmt.Fprintln(p.out, p.heading)
	}
	for _, f := range mypage.Fields {
		fmt.Fprintf(p.out, "  %-9s %s\n", labels[f]+":", p.values[f])
	}
}

// Prompt is a mypage.Confirmer reading y/N answers from in.
type Prompt struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

// NewPrompt creates a Prompt. With assumeYes every question is answered
// yes without reading.
func NewPrompt(in io.Reader, out io.Writer, assumeYes bool) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

// Confirm asks prompt and blocks for an answer. Anything but y or yes,
// including end of input, is a no.
func (p *Prompt) Confirm(_ context.Context, prompt string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
