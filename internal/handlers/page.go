package handlers

import (
	"context"
	"sync"

	"github.com/dangun/myaccount/internal/mypage"
	"github.com/dangun/myaccount/web/src/templates/pages"
)

// webPage is the controller's view of one HTTP request: the submitted form
// is the document, notices collect for the response and navigation becomes
// a redirect.
type webPage struct {
	mu        sync.Mutex
	values    map[mypage.Field]string
	heading   string
	notices   []mypage.Notice
	target    string
	confirmed bool
}

func newWebPage() *webPage {
	return &webPage{values: make(map[mypage.Field]string)}
}

func (p *webPage) Value(f mypage.Field) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[f]
}

func (p *webPage) SetValue(f mypage.Field, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[f] = v
}

func (p *webPage) SetHeading(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heading = text
}

func (p *webPage) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = make(map[mypage.Field]string)
	p.heading = ""
}

func (p *webPage) Notify(_ context.Context, n mypage.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, n)
}

// Confirm answers with what the browser already decided: the delete form
// only carries confirm=true after the user accepted the dialog.
func (p *webPage) Confirm(context.Context, string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.confirmed
}

// Navigate keeps the first target; a page can only be left once.
func (p *webPage) Navigate(_ context.Context, target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == "" {
		p.target = target
	}
}

func (p *webPage) navigation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

func (p *webPage) data() pages.MyPageData {
	p.mu.Lock()
	defer p.mu.Unlock()
	values := make(map[mypage.Field]string, len(p.values))
	for k, v := range p.values {
		values[k] = v
	}
	return pages.MyPageData{
		Heading: p.heading,
		Values:  values,
		Notices: append([]mypage.Notice(nil), p.notices...),
	}
}
