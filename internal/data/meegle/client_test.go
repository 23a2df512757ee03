package meegle

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer emulates the handful of endpoints the client touches.
type testServer struct {
	*httptest.Server
	tokenRequests int
	userRequests  int
	viewTotal     int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{viewTotal: 250}

	mux := http.NewServeMux()
	mux.HandleFunc("/authen/plugin_token", func(w http.ResponseWriter, r *http.Request) {
		ts.tokenRequests++
		fmt.Fprint(w, `{"error":{"code":0},"data":{"token":"tok-1","expire_time":7200}}`)
	})
	mux.HandleFunc("/proj/fix_view/", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page_num"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		start := (page-1)*size + 1
		var ids []string
		for i := start; i <= ts.viewTotal && len(ids) < size; i++ {
			ids = append(ids, strconv.Itoa(i))
		}
		fmt.Fprintf(w, `{"err_code":0,"data":{"work_item_id_list":[%s]},"pagination":{"total":%d}}`,
			strings.Join(ids, ","), ts.viewTotal)
	})
	mux.HandleFunc("/proj/work_item/story/", func(w http.ResponseWriter, r *http.Request) {
		// Workflow query for any item id.
		fmt.Fprint(w, `{"err_code":0,"data":{"workflow_nodes":[
			{"id":"n1","name":"Development","sub_tasks":[
				{"id":"t1","name":"Task","schedules":[
					{"owners":["u1"],"points":4,"estimate_start_date":"2024-01-08","estimate_end_date":"2024-01-09"}
				]}
			]}
		]}}`)
	})
	mux.HandleFunc("/proj/work_item/story/query", func(w http.ResponseWriter, r *http.Request) {
		var body workItemQuery
		_ = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&body)
		var items []string
		for _, id := range body.WorkItemIDs {
			if id == "404" {
				continue
			}
			items = append(items, fmt.Sprintf(`{"id":%s,"name":"Item %s"}`, id, id))
		}
		fmt.Fprintf(w, `{"err_code":0,"data":[%s]}`, strings.Join(items, ","))
	})
	mux.HandleFunc("/user/query", func(w http.ResponseWriter, r *http.Request) {
		ts.userRequests++
		var body userQuery
		_ = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&body)
		key := ""
		if len(body.UserKeys) > 0 {
			key = body.UserKeys[0]
		}
		if key == "ghost" {
			fmt.Fprint(w, `{"err_code":0,"data":[]}`)
			return
		}
		fmt.Fprintf(w, `{"err_code":0,"data":[{"user_key":"%s","email":"%s@corp.example","name_en":"User %s"}]}`,
			key, key, key)
	})

	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, ts *testServer) *Client {
	t.Helper()
	tokens := NewTokenManager("plg", "sec", "usr", ts.URL, "")
	return NewClient(tokens, Options{
		BaseURL:    ts.URL,
		ProjectKey: "proj",
		MaxRetries: 1,
	})
}

func TestListWorkItemIDsInViewPagination(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts)

	ids, err := client.ListWorkItemIDsInView("view1")
	require.NoError(t, err)
	require.Len(t, ids, 250)
	assert.Equal(t, int64(1), ids[0])
	assert.Equal(t, int64(250), ids[249])
}

func TestGetWorkItemDetails(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts)

	items, err := client.GetWorkItemDetails("story", []int64{10, 20})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(10), items[0].ID)
	assert.Equal(t, "Item 20", items[1].Name)

	items, err = client.GetWorkItemDetails("story", nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetWorkItemByIDNotFound(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts)

	item, err := client.GetWorkItemByID("404", "story")
	require.NoError(t, err)
	assert.Nil(t, item)

	item, err = client.GetWorkItemByID("42", "story")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, int64(42), item.ID)
}

func TestGetWorkflowNodes(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts)

	nodes, err := client.GetWorkflowNodes("story", 1001)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Development", nodes[0].Name)
	require.Len(t, nodes[0].SubTasks, 1)
	assert.Equal(t, []string{"u1"}, nodes[0].SubTasks[0].Schedules[0].Owners)
}

func TestResolveUser(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts)

	email, name := client.ResolveUser("u1")
	assert.Equal(t, "u1@corp.example", email)
	assert.Equal(t, "User u1", name)

	// Second resolution is served from cache.
	client.ResolveUser("u1")
	assert.Equal(t, 1, ts.userRequests)
}

func TestResolveUserFallback(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts)

	email, name := client.ResolveUser("ghost")
	assert.Equal(t, "ghost@company.com", email)
	assert.Equal(t, "ghost", name)

	// The miss is cached too.
	client.ResolveUser("ghost")
	assert.Equal(t, 1, ts.userRequests)

	email, name = client.ResolveUser("")
	assert.Empty(t, email)
	assert.Empty(t, name)
}

func TestTokenManagerReusesToken(t *testing.T) {
	ts := newTestServer(t)
	tokens := NewTokenManager("plg", "sec", "usr", ts.URL, "")

	first, err := tokens.ValidToken()
	require.NoError(t, err)
	second, err := tokens.ValidToken()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, ts.tokenRequests)

	tokens.Invalidate()
	_, err = tokens.ValidToken()
	require.NoError(t, err)
	assert.Equal(t, 2, ts.tokenRequests)
}

func TestTokenManagerFileCache(t *testing.T) {
	ts := newTestServer(t)
	cacheFile := filepath.Join(t.TempDir(), "cache", "token.json")

	tokens := NewTokenManager("plg", "sec", "usr", ts.URL, cacheFile)
	_, err := tokens.ValidToken()
	require.NoError(t, err)
	require.Equal(t, 1, ts.tokenRequests)

	// A fresh manager picks the token up from disk.
	reloaded := NewTokenManager("plg", "sec", "usr", ts.URL, cacheFile)
	token, err := reloaded.ValidToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, ts.tokenRequests)
}

func TestRequestSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/authen/plugin_token" {
			fmt.Fprint(w, `{"error":{"code":0},"data":{"token":"tok","expire_time":7200}}`)
			return
		}
		fmt.Fprint(w, `{"err_code":50001,"err_msg":"view not found"}`)
	}))
	t.Cleanup(server.Close)

	tokens := NewTokenManager("plg", "sec", "usr", server.URL, "")
	client := NewClient(tokens, Options{BaseURL: server.URL, ProjectKey: "proj", MaxRetries: 1})

	_, err := client.ListWorkItemIDsInView("view1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view not found")
}
