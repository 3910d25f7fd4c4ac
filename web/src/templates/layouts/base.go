package layouts

import (
	"github.com/dangun/myaccount/internal/view"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// htmxConfig lets 409 (a flow already running) swap its notice like a 2xx.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"409","swap":true},{"code":"[23]..","swap":true},{"code":"[45]..","swap":false,"error":true}]}`

// Base wraps content in the HTML document shell and renders any pending
// flash messages above it.
func Base(title string, flashes view.FlashData, content g.Node) g.Node {
	return g.Group{
		h.Doctype(
			h.HTML(
				h.Lang("en"),
				h.Head(
					h.Meta(h.Charset("utf-8")),
					h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
					h.TitleEl(g.Text(CalculateTitle(title))),
					h.Meta(h.Name("htmx-config"), h.Content(htmxConfig)),
					h.Script(h.Src(htmxSrc)),
				),
				h.Body(
					Flashes(flashes),
					h.Main(h.Class("container"), content),
				),
			),
		),
	}
}

// Flashes renders flash messages grouped by kind. Nothing is rendered when
// there are none.
func Flashes(f view.FlashData) g.Node {
	if f.Empty() {
		return nil
	}
	return h.Div(h.ID("flashes"),
		flashList("success", f.Success),
		flashList("error", f.Error),
		flashList("info", f.Info),
	)
}

func flashList(kind string, messages []string) g.Node {
	return g.Map(messages, func(m string) g.Node {
		return h.P(h.Class("flash flash-"+kind), g.Attr("role", "alert"), g.Text(m))
	})
}
