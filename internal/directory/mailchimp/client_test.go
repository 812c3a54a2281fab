package mailchimp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
)

type call struct {
	Method string
	Path   string
	Member Member
}

// fakeList is an in-memory list that speaks the subset of the members API the
// client uses.
type fakeList struct {
	mu      sync.Mutex
	members map[string]Member
	calls   []call
	fail    int
}

func newFakeList(t *testing.T) (*fakeList, *Client) {
	t.Helper()
	f := &fakeList{members: map[string]Member{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "test-key", ServerPrefix: "us10", ListID: "list1"})
	require.NoError(t, err)
	c.baseURL = srv.URL
	return f, c
}

func (f *fakeList) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer test-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	c := call{Method: r.Method, Path: r.URL.Path}
	if r.Body != nil && r.Method != http.MethodGet {
		_ = json.NewDecoder(r.Body).Decode(&c.Member)
	}
	f.calls = append(f.calls, c)

	if f.fail != 0 {
		w.WriteHeader(f.fail)
		_, _ = w.Write([]byte(`{"title":"Member Exists","detail":"boom"}`))
		return
	}

	const prefix = "/lists/list1/members"
	switch {
	case r.Method == http.MethodPost && r.URL.Path == prefix:
		f.members[directory.MemberKey(c.Member.EmailAddress)] = c.Member
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, prefix+"/"):
		if _, ok := f.members[strings.TrimPrefix(r.URL.Path, prefix+"/")]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"title":"Resource Not Found"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, prefix+"/"):
		f.members[strings.TrimPrefix(r.URL.Path, prefix+"/")] = c.Member
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	cases := map[string]Config{
		"api key":       {ServerPrefix: "us10", ListID: "l"},
		"server prefix": {APIKey: "k", ListID: "l"},
		"list id":       {APIKey: "k", ServerPrefix: "us10"},
	}
	for field, cfg := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := New(cfg)
			var ce *directory.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, field, ce.Field)
		})
	}

	c, err := New(Config{APIKey: "k", ServerPrefix: "us10", ListID: "l"})
	require.NoError(t, err)
	assert.Equal(t, "https://us10.api.mailchimp.com/3.0", c.baseURL)
}

func TestClient_ExistsCreateUpdate(t *testing.T) {
	f, c := newFakeList(t)
	ctx := context.Background()
	s := entity.Subscriber{Email: "a@b.com"}

	ok, err := c.Exists(ctx, s.Email)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Create(ctx, s))
	ok, err = c.Exists(ctx, "A@B.com")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Update(ctx, entity.Subscriber{Email: "a@b.com", FirstName: "Ada"}))

	key := directory.MemberKey("a@b.com")
	require.Len(t, f.calls, 4)
	assert.Equal(t, call{Method: http.MethodGet, Path: "/lists/list1/members/" + key}, f.calls[0])
	assert.Equal(t, http.MethodPost, f.calls[1].Method)
	assert.Equal(t, "/lists/list1/members", f.calls[1].Path)
	assert.Equal(t, Member{EmailAddress: "a@b.com", MergeFields: MergeFields{}, Status: StatusPending}, f.calls[1].Member)
	assert.Equal(t, http.MethodPatch, f.calls[3].Method)
	assert.Equal(t, "/lists/list1/members/"+key, f.calls[3].Path)
	assert.Equal(t, StatusSubscribed, f.calls[3].Member.Status)
	assert.Equal(t, "Ada", f.calls[3].Member.MergeFields.FirstName)
}

func TestClient_WireFormat(t *testing.T) {
	b, err := json.Marshal(memberFrom(entity.Subscriber{Email: "a@b.com"}, StatusPending))
	require.NoError(t, err)
	assert.JSONEq(t, `{"email_address":"a@b.com","merge_fields":{"FNAME":"","LNAME":"","COUNTRY":""},"status":"pending"}`, string(b))

	// form-only fields never reach the list
	b, err = json.Marshal(memberFrom(entity.Subscriber{Email: "a@b.com", Name: "Ada", InterestedInSpeaking: true, WantToVolunteer: true}, StatusPending))
	require.NoError(t, err)
	assert.JSONEq(t, `{"email_address":"a@b.com","merge_fields":{"FNAME":"","LNAME":"","COUNTRY":""},"status":"pending"}`, string(b))
}

func TestClient_ProviderFailure(t *testing.T) {
	f, c := newFakeList(t)
	f.fail = http.StatusBadRequest

	err := c.Create(context.Background(), entity.Subscriber{Email: "a@b.com"})
	var pe *directory.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadRequest, pe.Status)
	assert.Contains(t, pe.Body, "Member Exists")
}

func TestClient_ExistsDistinguishesOutageFromNotFound(t *testing.T) {
	f, c := newFakeList(t)
	f.fail = http.StatusServiceUnavailable

	ok, err := c.Exists(context.Background(), "a@b.com")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, directory.ErrProvider))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(Config{APIKey: "k", ServerPrefix: "us10", ListID: "l"})
	require.NoError(t, err)
	c.baseURL = srv.URL
	srv.Close()

	_, err = c.Exists(context.Background(), "a@b.com")
	assert.True(t, errors.Is(err, directory.ErrTransport))
}
