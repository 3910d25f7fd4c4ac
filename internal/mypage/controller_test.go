package mypage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/dangun/myaccount/internal/domain"
	"github.com/dangun/myaccount/internal/memberapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func profileResponse(t *testing.T, p domain.ProfileView) *domain.ServerResponse {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return &domain.ServerResponse{Code: domain.CodeProfileRetrieved, Data: data}
}

func TestOpen_WithoutToken(t *testing.T) {
	h := newHarness(false)
	c := h.controller()

	err := c.Open(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.True(t, h.doc.cleared, "page content is cleared")
	require.Len(t, h.notifier.notices, 1, "exactly one login-required notice")
	assert.Equal(t, NoticeError, h.notifier.notices[0].Kind)
	assert.Equal(t, []string{testPaths.Login}, h.navigator.targets)
	assert.Equal(t, []string{"clear", "notify error", "navigate /html/login.html"}, h.j.list(),
		"navigation happens with no network call")
	h.api.AssertNotCalled(t, "MyInfo", mock.Anything, mock.Anything)
	assert.Equal(t, StateRedirectedToLogin, c.State())
	assert.Equal(t, []string{"guard:unauthenticated"}, h.recorder.records)
}

func TestOpen_LoadsProfile(t *testing.T) {
	cases := []domain.ProfileView{
		{Email: "kim@example.com", Nickname: "kim", Address: domain.Address{Street: "Main St 1", Detail: "Apt 2", Zipcode: "12345"}},
		{Email: "", Nickname: "  spaced  ", Address: domain.Address{Street: "<b>x</b>", Detail: "", Zipcode: "00000"}},
		{Email: "유저@example.com", Nickname: "닉네임", Address: domain.Address{Street: "서울", Detail: "101동", Zipcode: "04524"}},
	}

	for i, p := range cases {
		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			h := newHarness(true)
			h.api.On("MyInfo", mock.Anything, mock.Anything).Return(profileResponse(t, p), nil).Once()
			c := h.controller()

			require.NoError(t, c.Open(context.Background()))

			assert.Equal(t, p.Email, h.doc.Value(FieldEmail))
			assert.Equal(t, p.Nickname, h.doc.Value(FieldNickname))
			assert.Equal(t, p.Address.Street, h.doc.Value(FieldStreet))
			assert.Equal(t, p.Address.Detail, h.doc.Value(FieldDetail))
			assert.Equal(t, p.Address.Zipcode, h.doc.Value(FieldZipcode))
			assert.Contains(t, h.doc.heading, p.Nickname)
			assert.Empty(t, h.notifier.notices)
			assert.Equal(t, StateLoaded, c.State())
			h.api.AssertExpectations(t)
		})
	}
}

func TestLoadProfile_Failures(t *testing.T) {
	cases := map[string]struct {
		resp *domain.ServerResponse
		err  error
	}{
		"other code":        {resp: &domain.ServerResponse{Code: "MEMBER-E001", Message: "not found"}},
		"transport failure": {err: fmt.Errorf("%w: dial tcp: refused", domain.ErrTransport)},
		"malformed body":    {err: fmt.Errorf("%w: unexpected end of JSON input", domain.ErrMalformedResponse)},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(true)
			h.api.On("MyInfo", mock.Anything, mock.Anything).Return(tc.resp, tc.err).Once()
			c := h.controller()

			assert.Error(t, c.Open(context.Background()))

			require.Len(t, h.notifier.notices, 1)
			assert.Equal(t, msgLoadFailed, h.notifier.notices[0].Text)
			assert.Empty(t, h.doc.values, "fields keep their default state")
			assert.Empty(t, h.navigator.targets)
			assert.Equal(t, StateLoadFailed, c.State())
		})
	}
}

func TestUpdateProfile_SuccessForcesReauthentication(t *testing.T) {
	h := newHarness(true)
	h.doc.values[FieldNickname] = "new-kim"
	h.api.On("UpdateInfo", mock.Anything, mock.Anything, domain.ProfileUpdate{Nickname: "new-kim"}).
		Return(&domain.ServerResponse{Code: domain.CodeUpdateSucceeded}, nil).Once()
	h.api.On("Logout", mock.Anything, mock.Anything).Return(nil).Once()
	c := h.controller()

	require.NoError(t, c.UpdateProfile(context.Background()))

	assert.Equal(t, []string{
		"PUT my-info-update",
		"notify success",
		"POST logout",
		"remove local accessToken",
		"notify success",
		"navigate /html/login.html",
	}, h.j.list())
	assert.Equal(t, msgUpdateSucceeded, h.notifier.notices[0].Text)
	assert.Equal(t, msgLogoutSucceeded, h.notifier.notices[1].Text)
	assert.False(t, h.tokenPresent())
	assert.Equal(t, StateReauthRedirect, c.State())
	h.api.AssertNumberOfCalls(t, "Logout", 1)
	assert.Equal(t, []string{"update_profile:success", "logout:success"}, h.recorder.records)
}

func TestUpdateProfile_LogoutFailureKeepsToken(t *testing.T) {
	h := newHarness(true)
	h.api.On("UpdateInfo", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ServerResponse{Code: domain.CodeUpdateSucceeded}, nil).Once()
	h.api.On("Logout", mock.Anything, mock.Anything).
		Return(&memberapi.StatusError{Method: http.MethodPost, Path: memberapi.PathLogout, StatusCode: 500}).Once()
	c := h.controller()

	err := c.UpdateProfile(context.Background())

	assert.ErrorIs(t, err, domain.ErrTransport)
	require.Len(t, h.notifier.notices, 2)
	assert.Equal(t, NoticeError, h.notifier.notices[1].Kind)
	assert.Equal(t, msgLogoutFailed+": HTTP error! Status: 500", h.notifier.notices[1].Text)
	assert.True(t, h.tokenPresent(), "token is only removed on a successful logout")
	assert.Empty(t, h.navigator.targets)
}

func TestUpdateProfile_RejectedByServer(t *testing.T) {
	messages := []string{"Please enter a nickname.", "닉네임을 입력해주세요.", ""}

	for _, msg := range messages {
		t.Run(fmt.Sprintf("message %q", msg), func(t *testing.T) {
			h := newHarness(true)
			h.api.On("UpdateInfo", mock.Anything, mock.Anything, mock.Anything).
				Return(&domain.ServerResponse{Code: "MEMBER-E003", Message: msg}, nil).Once()
			c := h.controller()

			err := c.UpdateProfile(context.Background())

			assert.ErrorIs(t, err, domain.ErrUnexpectedCode)
			h.api.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
			require.Len(t, h.notifier.notices, 1)
			assert.Equal(t, NoticeError, h.notifier.notices[0].Kind)
			assert.Contains(t, h.notifier.notices[0].Text, msg)
			assert.True(t, h.tokenPresent())
		})
	}
}

func TestUpdateProfile_TransportFailure(t *testing.T) {
	h := newHarness(true)
	h.api.On("UpdateInfo", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &memberapi.StatusError{Method: http.MethodPut, Path: memberapi.PathUpdateInfo, StatusCode: 502}).Once()
	c := h.controller()

	assert.ErrorIs(t, c.UpdateProfile(context.Background()), domain.ErrTransport)
	require.Len(t, h.notifier.notices, 1)
	assert.Equal(t, msgUpdateFailed+": HTTP error! Status: 502", h.notifier.notices[0].Text)
	h.api.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"update_profile:transport_error"}, h.recorder.records)
}

func TestUpdateProfile_HeaderFailureIsTransportFailure(t *testing.T) {
	h := newHarness(true)
	h.deps.Headers = staticHeaders{err: errStorage}
	c := h.controller()

	assert.ErrorIs(t, c.UpdateProfile(context.Background()), domain.ErrTransport)
	h.api.AssertNotCalled(t, "UpdateInfo", mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, h.notifier.notices, 1)
	assert.Equal(t, msgUpdateFailed+".", h.notifier.notices[0].Text)
}

func TestUpdateProfile_UsesInjectedReauthenticator(t *testing.T) {
	h := newHarness(true)
	h.api.On("UpdateInfo", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ServerResponse{Code: domain.CodeUpdateSucceeded}, nil).Once()
	reauth := &countingReauth{}
	h.deps.Reauth = reauth
	c := h.controller()

	require.NoError(t, c.UpdateProfile(context.Background()))
	assert.Equal(t, 1, reauth.calls)
	h.api.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}

type countingReauth struct{ calls int }

func (r *countingReauth) Reauthenticate(context.Context) error {
	r.calls++
	return nil
}

func TestUpdateAddress(t *testing.T) {
	t.Run("success does not log out", func(t *testing.T) {
		h := newHarness(true)
		h.doc.values[FieldStreet] = "Main St 1"
		h.doc.values[FieldDetail] = "Apt 2"
		h.doc.values[FieldZipcode] = "12345"
		h.api.On("UpdateAddress", mock.Anything, mock.Anything,
			domain.AddressUpdate{Street: "Main St 1", Detail: "Apt 2", Zipcode: "12345"}).
			Return(&domain.ServerResponse{Code: domain.CodeUpdateSucceeded}, nil).Once()
		c := h.controller()

		require.NoError(t, c.UpdateAddress(context.Background()))

		assert.Equal(t, []string{"PUT my-address-update", "notify success"}, h.j.list(),
			"no further network call after a successful address update")
		assert.True(t, h.tokenPresent())
		assert.Equal(t, StateLoaded, c.State())
	})

	t.Run("rejection carries the server message", func(t *testing.T) {
		h := newHarness(true)
		h.api.On("UpdateAddress", mock.Anything, mock.Anything, mock.Anything).
			Return(&domain.ServerResponse{Code: "MEMBER-E004", Message: "Please enter a zipcode."}, nil).Once()
		c := h.controller()

		assert.ErrorIs(t, c.UpdateAddress(context.Background()), domain.ErrUnexpectedCode)
		require.Len(t, h.notifier.notices, 1)
		assert.Equal(t, msgUpdateFailed+": Please enter a zipcode.", h.notifier.notices[0].Text)
	})

	t.Run("unloaded fields are submitted empty", func(t *testing.T) {
		h := newHarness(true)
		h.api.On("UpdateAddress", mock.Anything, mock.Anything, domain.AddressUpdate{}).
			Return(&domain.ServerResponse{Code: domain.CodeUpdateSucceeded}, nil).Once()

		require.NoError(t, h.controller().UpdateAddress(context.Background()))
		h.api.AssertExpectations(t)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("declined makes no call", func(t *testing.T) {
		h := newHarness(true)
		h.confirmer.answer = false
		c := h.controller()

		assert.ErrorIs(t, c.DeleteAccount(context.Background()), domain.ErrNotConfirmed)
		assert.Equal(t, []string{DeleteConfirmPrompt}, h.confirmer.prompts)
		assert.Empty(t, h.j.list(), "zero network calls and no side effects")
		assert.Empty(t, h.api.Calls)
		assert.True(t, h.tokenPresent())
	})

	t.Run("confirmed and deleted", func(t *testing.T) {
		h := newHarness(true)
		h.confirmer.answer = true
		h.api.On("DeleteInfo", mock.Anything, mock.Anything).
			Return(&domain.ServerResponse{Code: domain.CodeDeleteSucceeded}, nil).Once()
		c := h.controller()

		require.NoError(t, c.DeleteAccount(context.Background()))

		assert.False(t, h.tokenPresent())
		assert.Equal(t, []string{
			"DELETE my-info-delete",
			"remove local accessToken",
			"notify success",
			"navigate /index.html",
		}, h.j.list())
		assert.Equal(t, StateDeleted, c.State())
	})

	t.Run("other code keeps the token", func(t *testing.T) {
		h := newHarness(true)
		h.confirmer.answer = true
		h.api.On("DeleteInfo", mock.Anything, mock.Anything).
			Return(&domain.ServerResponse{Code: "MEMBER-E002", Message: "member not found"}, nil).Once()
		c := h.controller()

		assert.ErrorIs(t, c.DeleteAccount(context.Background()), domain.ErrUnexpectedCode)
		assert.True(t, h.tokenPresent())
		require.Len(t, h.notifier.notices, 1)
		assert.Equal(t, msgDeleteFailed+": member not found", h.notifier.notices[0].Text)
		assert.Empty(t, h.navigator.targets)
	})

	t.Run("malformed body keeps the token", func(t *testing.T) {
		h := newHarness(true)
		h.confirmer.answer = true
		h.api.On("DeleteInfo", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: invalid character '<'", domain.ErrMalformedResponse)).Once()
		c := h.controller()

		assert.ErrorIs(t, c.DeleteAccount(context.Background()), domain.ErrMalformedResponse)
		assert.True(t, h.tokenPresent())
		require.Len(t, h.notifier.notices, 1)
		assert.Equal(t, msgDeleteFailed+".", h.notifier.notices[0].Text)
	})
}

func TestViewMyPosts(t *testing.T) {
	t.Run("flag is written before navigation", func(t *testing.T) {
		h := newHarness(true)
		c := h.controller()

		require.NoError(t, c.ViewMyPosts(context.Background()))

		assert.Equal(t, []string{
			"set session viewMyPosts=true",
			"navigate ../html/boardList.html",
		}, h.j.list())
		assert.Empty(t, h.api.Calls)
		assert.Equal(t, StateRedirectedToListing, c.State())
	})

	t.Run("storage failure does not navigate", func(t *testing.T) {
		h := newHarness(true)
		h.session.err = errStorage
		c := h.controller()

		assert.ErrorIs(t, c.ViewMyPosts(context.Background()), errStorage)
		assert.Empty(t, h.navigator.targets)
		require.Len(t, h.notifier.notices, 1)
	})
}

func TestReauthenticate_Standalone(t *testing.T) {
	h := newHarness(true)
	h.api.On("Logout", mock.Anything, mock.Anything).Return(nil).Once()
	c := h.controller()

	require.NoError(t, c.Reauthenticate(context.Background()))
	assert.False(t, h.tokenPresent())
	assert.Equal(t, []string{testPaths.Login}, h.navigator.targets)
}

func TestGate_RejectsConcurrentFlows(t *testing.T) {
	h := newHarness(true)
	gate := NewGate()
	h.deps.Gate = gate
	h.deps.GateKey = "session-a"
	c := h.controller()

	release, ok := gate.TryAcquire("session-a")
	require.True(t, ok)

	assert.ErrorIs(t, c.UpdateAddress(context.Background()), domain.ErrBusy)
	assert.ErrorIs(t, c.ViewMyPosts(context.Background()), domain.ErrBusy)
	assert.Empty(t, h.api.Calls)
	require.Len(t, h.notifier.notices, 2)
	assert.Equal(t, NoticeInfo, h.notifier.notices[0].Kind)

	release()
	require.NoError(t, c.ViewMyPosts(context.Background()))

	t.Run("other keys are independent", func(t *testing.T) {
		held, ok := gate.TryAcquire("session-a")
		require.True(t, ok)
		defer held()

		other, ok := gate.TryAcquire("session-b")
		require.True(t, ok)
		other()
	})

	t.Run("release is idempotent", func(t *testing.T) {
		r, ok := gate.TryAcquire("session-c")
		require.True(t, ok)
		r()
		r()
		again, ok := gate.TryAcquire("session-c")
		require.True(t, ok)
		again()
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "state(99)", State(99).String())
}
