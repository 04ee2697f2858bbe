package media_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zondarr/zondarr-api/media"
)

func newJellyfin(t *testing.T, handler http.Handler) (media.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := media.NewJellyfinClient(media.ConnectionParams{BaseURL: srv.URL, APIKey: "test-key"})
	t.Cleanup(client.Close)
	return client, srv
}

func TestJellyfinClient_TestConnection(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/System/Info", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), `Token="test-key"`)
		w.WriteHeader(http.StatusOK)
	}))

	assert.True(t, client.TestConnection(context.Background()))
}

func TestJellyfinClient_TestConnectionAuthFailure(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	assert.False(t, client.TestConnection(context.Background()))
}

func TestJellyfinClient_TestConnectionUnreachable(t *testing.T) {
	client := media.NewJellyfinClient(media.ConnectionParams{BaseURL: "http://127.0.0.1:1", APIKey: "k"})
	defer client.Close()

	assert.False(t, client.TestConnection(context.Background()))
}

func TestJellyfinClient_ListLibraries(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Library/MediaFolders", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Items": []map[string]string{
				{"Id": "f1", "Name": "Movies", "CollectionType": "movies"},
				{"Id": "f2", "Name": "Shows", "CollectionType": "tvshows"},
			},
		})
	}))

	libraries, err := client.ListLibraries(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []media.LibraryInfo{
		{ExternalID: "f1", Name: "Movies", ContentType: "movies"},
		{ExternalID: "f2", Name: "Shows", ContentType: "tvshows"},
	}, libraries)
}

func TestJellyfinClient_CreateAccount(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Users/New", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "alice", body["Name"])
		assert.Equal(t, "hunter2", body["Password"])

		json.NewEncoder(w).Encode(map[string]interface{}{"Id": "u1", "Name": "alice"})
	}))

	ref, err := client.CreateAccount(context.Background(), "alice", "hunter2", "alice@example.com")
	assert.NoError(t, err)
	assert.Equal(t, &media.AccountRef{ExternalID: "u1", Username: "alice", Enabled: true}, ref)
}

func TestJellyfinClient_CreateAccountUsernameTaken(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("A user with the name alice already exists."))
	}))

	ref, err := client.CreateAccount(context.Background(), "alice", "hunter2", "")
	assert.Nil(t, ref)

	var taken *media.UsernameTakenError
	assert.ErrorAs(t, err, &taken)
	assert.Equal(t, "alice", taken.Username)
}

func TestJellyfinClient_CreateAccountServerError(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.CreateAccount(context.Background(), "alice", "hunter2", "")

	var serviceErr *media.ExternalServiceError
	assert.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "create_account", serviceErr.Operation)
}

func TestJellyfinClient_DeleteAccountNotFound(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	found, err := client.DeleteAccount(context.Background(), "missing")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestJellyfinClient_SetLibraryAccessMergesPolicy(t *testing.T) {
	var posted map[string]interface{}
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/Users/u1":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"Id":   "u1",
				"Name": "alice",
				"Policy": map[string]interface{}{
					"IsAdministrator": false,
					"IsDisabled":      false,
				},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/Users/u1/Policy":
			json.NewDecoder(r.Body).Decode(&posted)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	found, err := client.SetLibraryAccess(context.Background(), "u1", []string{"f1", "f2"})
	assert.NoError(t, err)
	assert.True(t, found)

	// restriction fields set, untouched policy fields carried over
	assert.Equal(t, false, posted["EnableAllFolders"])
	assert.Equal(t, []interface{}{"f1", "f2"}, posted["EnabledFolders"])
	assert.Equal(t, false, posted["IsAdministrator"])
}

func TestJellyfinClient_SetEnabledMissingUser(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	found, err := client.SetEnabled(context.Background(), "missing", false)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestJellyfinClient_ListAccountsReadsDisabledFlag(t *testing.T) {
	client, _ := newJellyfin(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Users", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"Id": "u1", "Name": "alice", "Policy": map[string]interface{}{"IsDisabled": false}},
			{"Id": "u2", "Name": "bob", "Policy": map[string]interface{}{"IsDisabled": true}},
		})
	}))

	accounts, err := client.ListAccounts(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []media.AccountRef{
		{ExternalID: "u1", Username: "alice", Enabled: true},
		{ExternalID: "u2", Username: "bob", Enabled: false},
	}, accounts)
}

func TestEmbyClient_CreateAccountTwoStep(t *testing.T) {
	var passwordSet bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Emby-Token"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/Users/New":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "alice", body["Name"])
			assert.Empty(t, body["Password"])
			json.NewEncoder(w).Encode(map[string]interface{}{"Id": "u1", "Name": "alice"})
		case r.Method == http.MethodPost && r.URL.Path == "/Users/u1/Password":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "hunter2", body["NewPw"])
			passwordSet = true
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := media.NewEmbyClient(media.ConnectionParams{BaseURL: srv.URL, APIKey: "test-key"})
	defer client.Close()

	ref, err := client.CreateAccount(context.Background(), "alice", "hunter2", "")
	assert.NoError(t, err)
	assert.Equal(t, "u1", ref.ExternalID)
	assert.True(t, passwordSet)
}
