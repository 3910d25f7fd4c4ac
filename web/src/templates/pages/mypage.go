package pages

import (
	"github.com/dangun/myaccount/internal/mypage"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

// Element ids the forms target. Actions only swap the notices; the inputs
// keep what the user typed.
const (
	MyPageID  = "my-page"
	NoticesID = "notices"
)

// Action endpoints of the page.
const (
	ProfileAction = "/my-page/profile"
	AddressAction = "/my-page/address"
	DeleteAction  = "/my-page/delete"
	PostsAction   = "/my-page/posts"
)

// MyPageData is everything the page shows.
type MyPageData struct {
	Heading string
	Values  map[mypage.Field]string
	Notices []mypage.Notice
}

func (d MyPageData) value(f mypage.Field) string {
	return d.Values[f]
}

// MyPage renders the account page section. Forms post through htmx with
// every input of the page included; they also work as plain forms.
func MyPage(d MyPageData) g.Node {
	return h.Section(h.ID(MyPageID),
		h.H1(h.Class("main-title"), g.Text(d.Heading)),
		h.Div(h.ID(NoticesID), Notices(d.Notices)),

		h.Form(h.ID("profile-form"), h.Method("post"), h.Action(ProfileAction), swap(ProfileAction),
			field("Email", mypage.FieldEmail, d.value(mypage.FieldEmail), g.Attr("readonly")),
			field("Nickname", mypage.FieldNickname, d.value(mypage.FieldNickname)),
			h.Button(h.ID("btnUpdateMember"), h.Type("submit"), g.Text("Update profile")),
		),

		h.Form(h.ID("address-form"), h.Method("post"), h.Action(AddressAction), swap(AddressAction),
			field("Street", mypage.FieldStreet, d.value(mypage.FieldStreet)),
			field("Detail", mypage.FieldDetail, d.value(mypage.FieldDetail)),
			field("Zipcode", mypage.FieldZipcode, d.value(mypage.FieldZipcode)),
			h.Button(h.ID("btnAddressMember"), h.Type("submit"), g.Text("Update address")),
		),

		h.Form(h.ID("delete-form"), h.Method("post"), h.Action(DeleteAction), swap(DeleteAction),
			hx.Confirm(mypage.DeleteConfirmPrompt),
			hx.Vals(`{"confirm":"true"}`),
			h.Button(h.ID("btnDeleteAccount"), h.Type("submit"), g.Text("Delete account")),
		),

		h.Form(h.ID("posts-form"), h.Method("post"), h.Action(PostsAction), swap(PostsAction),
			h.Button(h.ID("btnMyPosts"), h.Type("submit"), g.Text("My posts")),
		),
	)
}

// Notices renders pending notices as an open modal dialog.
func Notices(ns []mypage.Notice) g.Node {
	if len(ns) == 0 {
		return nil
	}
	return g.El("dialog", h.ID("notice"), g.Attr("open"),
		g.Map(ns, func(n mypage.Notice) g.Node {
			return h.P(h.Class("notice notice-"+string(n.Kind)), g.Text(n.Text))
		}),
		h.Form(g.Attr("method", "dialog"),
			h.Button(h.Type("submit"), g.Text("OK")),
		),
	)
}

// Departure renders the notices of a flow that leaves the page. Acknowledging
// them follows the link to target.
func Departure(ns []mypage.Notice, target string) g.Node {
	return g.El("dialog", h.ID("notice"), g.Attr("open"),
		g.Map(ns, func(n mypage.Notice) g.Node {
			return h.P(h.Class("notice notice-"+string(n.Kind)), g.Text(n.Text))
		}),
		h.A(h.ID("notice-continue"), h.Href(target), hx.Boost("false"), g.Text("OK")),
	)
}

func swap(action string) g.Node {
	return g.Group{
		hx.Post(action),
		hx.Include("#" + MyPageID),
		hx.Target("#" + NoticesID),
		hx.Swap("innerHTML"),
	}
}

func field(label string, f mypage.Field, value string, extra ...g.Node) g.Node {
	id := string(f)
	return h.Div(h.Class("field"),
		h.Label(h.For(id), g.Text(label)),
		h.Input(h.ID(id), h.Name(id), h.Type("text"), h.Value(value), g.Group(extra)),
	)
}
