package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// graphqlMock 模拟 GitHub GraphQL 服务器，按 operationName 分发
type graphqlMock struct {
	server   *httptest.Server
	mu       sync.Mutex
	hits     map[string]int
	headers  http.Header
	handlers map[string]func(vars map[string]interface{}) (int, string)
}

func newGraphQLMock(t *testing.T) *graphqlMock {
	m := &graphqlMock{
		hits:     make(map[string]int),
		handlers: make(map[string]func(vars map[string]interface{}) (int, string)),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

func (m *graphqlMock) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OperationName string                 `json:"operationName"`
		Query         string                 `json:"query"`
		Variables     map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.hits[req.OperationName]++
	m.headers = r.Header.Clone()
	handler, ok := m.handlers[req.OperationName]
	m.mu.Unlock()

	if !ok || !strings.Contains(req.Query, "query "+req.OperationName) {
		http.Error(w, "unknown operation", http.StatusBadRequest)
		return
	}
	status, body := handler(req.Variables)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (m *graphqlMock) on(op string, handler func(vars map[string]interface{}) (int, string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[op] = handler
}

func (m *graphqlMock) hitCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[op]
}

func (m *graphqlMock) header() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headers
}

func (m *graphqlMock) client(mutate ...func(*Config)) *Client {
	cfg := DefaultConfig()
	cfg.Endpoint = m.server.URL
	cfg.Token = "test-token"
	cfg.AggregationTimeout = 5 * time.Second
	for _, fn := range mutate {
		fn(&cfg)
	}
	return NewClient(cfg)
}

// afterOf 读取分页变量 after，第一页为空串
func afterOf(vars map[string]interface{}) string {
	if s, ok := vars["after"].(string); ok {
		return s
	}
	return ""
}

const userInfoBody = `{"data":{"user":{
  "name": %s,
  "login": "octocat",
  "contributionsCollection": {"totalCommitContributions": 100},
  "repositoriesContributedTo": {"totalCount": 61},
  "pullRequests": {"totalCount": 300},
  "openIssues": {"totalCount": 150},
  "closedIssues": {"totalCount": 50},
  "followers": {"totalCount": 100},
  "repositories": {"totalCount": 5}
}}}`

type fakeRepo struct {
	name  string
	stars int64
}

func starPage(repos []fakeRepo, hasNext bool, cursor string) string {
	nodes := make([]string, 0, len(repos))
	for _, r := range repos {
		nodes = append(nodes, fmt.Sprintf(`{"name":%q,"stargazers":{"totalCount":%d}}`, r.name, r.stars))
	}
	end := "null"
	if cursor != "" {
		end = fmt.Sprintf("%q", cursor)
	}
	return fmt.Sprintf(`{"data":{"user":{"repositories":{"nodes":[%s],"pageInfo":{"hasNextPage":%t,"endCursor":%s}}}}}`,
		strings.Join(nodes, ","), hasNext, end)
}

// userInfoJSON 构造 UserInfo 响应，name 为 JSON 字面量（如 `"Octo"` 或 null）
func userInfoJSON(name string) string {
	return fmt.Sprintf(userInfoBody, name)
}
