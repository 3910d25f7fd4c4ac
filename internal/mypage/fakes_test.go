package mypage

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dangun/myaccount/internal/credentials"
	"github.com/dangun/myaccount/internal/domain"
	"github.com/stretchr/testify/mock"
)

// journal records side effects across fakes so tests can assert ordering.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

// mockAPI implements API for testing.
type mockAPI struct {
	mock.Mock
	j *journal
}

func (m *mockAPI) response(args mock.Arguments) (*domain.ServerResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServerResponse), args.Error(1)
}

func (m *mockAPI) MyInfo(ctx context.Context, h http.Header) (*domain.ServerResponse, error) {
	m.j.add("GET my-info")
	return m.response(m.Called(ctx, h))
}

func (m *mockAPI) UpdateInfo(ctx context.Context, h http.Header, req domain.ProfileUpdate) (*domain.ServerResponse, error) {
	m.j.add("PUT my-info-update")
	return m.response(m.Called(ctx, h, req))
}

func (m *mockAPI) UpdateAddress(ctx context.Context, h http.Header, req domain.AddressUpdate) (*domain.ServerResponse, error) {
	m.j.add("PUT my-address-update")
	return m.response(m.Called(ctx, h, req))
}

func (m *mockAPI) DeleteInfo(ctx context.Context, h http.Header) (*domain.ServerResponse, error) {
	m.j.add("DELETE my-info-delete")
	return m.response(m.Called(ctx, h))
}

func (m *mockAPI) Logout(ctx context.Context, h http.Header) error {
	m.j.add("POST logout")
	return m.Called(ctx, h).Error(0)
}

type staticHeaders struct{ err error }

func (s staticHeaders) Build(context.Context) (http.Header, error) {
	if s.err != nil {
		return nil, s.err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer token-1")
	return h, nil
}

type fakeDocument struct {
	j       *journal
	values  map[Field]string
	heading string
	cleared bool
}

func (d *fakeDocument) Value(f Field) string       { return d.values[f] }
func (d *fakeDocument) SetValue(f Field, v string) { d.values[f] = v }
func (d *fakeDocument) SetHeading(text string)     { d.heading = text }
func (d *fakeDocument) Clear() {
	d.j.add("clear")
	d.cleared = true
	d.values = map[Field]string{}
	d.heading = ""
}

type fakeNotifier struct {
	j       *journal
	notices []Notice
}

func (n *fakeNotifier) Notify(_ context.Context, notice Notice) {
	n.j.add("notify " + string(notice.Kind))
	n.notices = append(n.notices, notice)
}

type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

type fakeNavigator struct {
	j       *journal
	targets []string
}

func (n *fakeNavigator) Navigate(_ context.Context, target string) {
	n.j.add("navigate " + target)
	n.targets = append(n.targets, target)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []string
}

func (r *fakeRecorder) Record(_ context.Context, flow Flow, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, string(flow)+":"+string(outcome))
}

// journalStore wraps a Store and journals mutations.
type journalStore struct {
	credentials.Store
	j    *journal
	name string
	err  error
}

func (s *journalStore) Set(ctx context.Context, key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.j.add("set " + s.name + " " + key + "=" + value)
	return s.Store.Set(ctx, key, value)
}

func (s *journalStore) Remove(ctx context.Context, key string) error {
	s.j.add("remove " + s.name + " " + key)
	return s.Store.Remove(ctx, key)
}

var errStorage = errors.New("storage unavailable")

var testPaths = Paths{
	Login:   "/html/login.html",
	Listing: "../html/boardList.html",
	Home:    "/index.html",
}

type harness struct {
	j         *journal
	api       *mockAPI
	store     *journalStore
	session   *journalStore
	doc       *fakeDocument
	notifier  *fakeNotifier
	confirmer *fakeConfirmer
	navigator *fakeNavigator
	recorder  *fakeRecorder
	deps      Deps
}

func newHarness(withToken bool) *harness {
	j := &journal{}
	h := &harness{
		j:         j,
		api:       &mockAPI{j: j},
		store:     &journalStore{Store: credentials.NewMemoryStore(), j: j, name: "local"},
		session:   &journalStore{Store: credentials.NewMemoryStore(), j: j, name: "session"},
		doc:       &fakeDocument{j: j, values: map[Field]string{}},
		notifier:  &fakeNotifier{j: j},
		confirmer: &fakeConfirmer{},
		navigator: &fakeNavigator{j: j},
		recorder:  &fakeRecorder{},
	}
	if withToken {
		_ = h.store.Store.Set(context.Background(), domain.AccessTokenKey, "token-1")
	}
	h.deps = Deps{
		Store:     h.store,
		Session:   h.session,
		Headers:   staticHeaders{},
		API:       h.api,
		Document:  h.doc,
		Notifier:  h.notifier,
		Confirmer: h.confirmer,
		Navigator: h.navigator,
		Paths:     testPaths,
		Recorder:  h.recorder,
	}
	return h
}

func (h *harness) controller() *Controller {
	return New(h.deps)
}

func (h *harness) tokenPresent() bool {
	ok, _ := credentials.Present(context.Background(), h.store, domain.AccessTokenKey)
	return ok
}
