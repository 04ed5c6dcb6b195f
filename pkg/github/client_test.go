package github

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "minestats/pkg/error"
	"minestats/pkg/rank"
)

func TestFetchUserStats_AggregatesProfileAndStars(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, userInfoJSON(`"The Octocat"`)
	})
	mock.on(userRepoOperation, func(vars map[string]interface{}) (int, string) {
		switch afterOf(vars) {
		case "":
			return http.StatusOK, starPage([]fakeRepo{{"hello-world", 300}, {"spoon-knife", 60}}, true, "cursor-1")
		case "cursor-1":
			return http.StatusOK, starPage([]fakeRepo{{"linguist", 40}, {"empty", 0}}, false, "cursor-2")
		}
		return http.StatusBadRequest, `{}`
	})

	stats, err := mock.client().FetchUserStats(context.Background(), "octocat", nil)
	require.NoError(t, err)

	assert.Equal(t, "octocat", stats.Login)
	assert.Equal(t, "The Octocat", stats.Name)
	assert.Equal(t, int64(400), stats.Stars)
	assert.Equal(t, int64(100), stats.Commits)
	assert.Equal(t, int64(61), stats.Contribs)
	assert.Equal(t, int64(300), stats.PRs)
	assert.Equal(t, int64(200), stats.Issues, "open and closed issues are summed")
	assert.Equal(t, int64(100), stats.Followers)
	assert.Equal(t, int64(5), stats.Repos)
	assert.Equal(t, rank.Rank{Level: "A+", Score: 49}, stats.Rank)
	assert.False(t, stats.CreatedAt().IsZero())

	assert.Equal(t, 1, mock.hitCount(userInfoOperation))
	assert.Equal(t, 2, mock.hitCount(userRepoOperation))

	h := mock.header()
	assert.Equal(t, "Bearer test-token", h.Get("Authorization"))
	assert.Equal(t, "minestats/0.3.0", h.Get("User-Agent"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestFetchUserStats_NameFallsBackToLogin(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, userInfoJSON("null")
	})
	mock.on(userRepoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, starPage(nil, false, "")
	})

	stats, err := mock.client().FetchUserStats(context.Background(), "octocat", nil)
	require.NoError(t, err)
	assert.Equal(t, "octocat", stats.Name)
	assert.Equal(t, int64(0), stats.Stars)
}

func TestFetchTotalStars_HidesRepositories(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userRepoOperation, func(vars map[string]interface{}) (int, string) {
		if afterOf(vars) == "" {
			return http.StatusOK, starPage([]fakeRepo{{"a", 10}, {"secret", 1000}}, true, "p2")
		}
		return http.StatusOK, starPage([]fakeRepo{{"b", 5}, {"also-hidden", 7}}, false, "")
	})

	total, err := mock.client().FetchTotalStars(context.Background(), "octocat", []string{"secret", "also-hidden"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
}

func TestFetchTotalStars_StopsWhenCursorMissing(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userRepoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, starPage([]fakeRepo{{"a", 3}}, true, "")
	})

	total, err := mock.client().FetchTotalStars(context.Background(), "octocat", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, 1, mock.hitCount(userRepoOperation))
}

func TestFetchTotalStars_StopsWhenCursorRepeats(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userRepoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, starPage([]fakeRepo{{"a", 1}}, true, "same")
	})

	total, err := mock.client().FetchTotalStars(context.Background(), "octocat", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, 2, mock.hitCount(userRepoOperation))
}

func TestFetchUserStats_UserNotFound(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, `{"data":{"user":null},"errors":[{"type":"NOT_FOUND","path":["user"],"message":"Could not resolve to a User with the login of 'ghost'."}]}`
	})

	_, err := mock.client().FetchUserStats(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, ErrUserNotFound))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 0, mock.hitCount(userRepoOperation))
}

func TestFetchUserStats_NullUserWithoutErrors(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, `{"data":{"user":null}}`
	})

	_, err := mock.client().FetchUserStats(context.Background(), "ghost", nil)
	assert.True(t, apperr.HasCode(err, ErrUserNotFound))
}

func TestFetchUserStats_HTTPErrorIsUpstreamUnavailable(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusBadGateway, `{"message":"bad gateway"}`
	})

	_, err := mock.client().FetchUserStats(context.Background(), "octocat", nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, ErrUpstreamUnavailable))
	assert.True(t, IsRetryable(err))
}

func TestFetchUserStats_MalformedResponse(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, `{"data":{"user":`
	})

	_, err := mock.client().FetchUserStats(context.Background(), "octocat", nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, ErrMalformedResponse))
	assert.False(t, IsRetryable(err))
}

func TestFetchUserStats_GraphQLErrorsWithoutData(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, `{"errors":[{"message":"Field 'bogus' doesn't exist"}]}`
	})

	_, err := mock.client().FetchUserStats(context.Background(), "octocat", nil)
	assert.True(t, apperr.HasCode(err, ErrMalformedResponse))
}

func TestFetchUserStats_AggregationDeadline(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, userInfoJSON("null")
	})
	mock.on(userRepoOperation, func(vars map[string]interface{}) (int, string) {
		time.Sleep(300 * time.Millisecond)
		return http.StatusOK, starPage(nil, false, "")
	})

	client := mock.client(func(cfg *Config) {
		cfg.AggregationTimeout = 100 * time.Millisecond
	})
	_, err := client.FetchUserStats(context.Background(), "octocat", nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, ErrUpstreamTimeout))
	assert.True(t, IsRetryable(err))
}

func TestClient_CircuitBreakerOpensAfterFailures(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusInternalServerError, `oops`
	})

	client := mock.client(func(cfg *Config) {
		cfg.Breaker.ReadyToTrip = 2
		cfg.Breaker.Timeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := client.FetchUserStats(context.Background(), "octocat", nil)
		assert.True(t, apperr.HasCode(err, ErrUpstreamUnavailable))
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err := client.FetchUserStats(context.Background(), "octocat", nil)
	assert.True(t, apperr.HasCode(err, ErrUpstreamUnavailable))
	assert.Equal(t, 2, mock.hitCount(userInfoOperation), "open breaker rejects without calling upstream")
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	mock := newGraphQLMock(t)
	mock.on(userInfoOperation, func(vars map[string]interface{}) (int, string) {
		return http.StatusOK, `{"data":{"user":null}}`
	})

	client := mock.client(func(cfg *Config) {
		cfg.Breaker.ReadyToTrip = 1
	})
	for i := 0; i < 3; i++ {
		_, err := client.FetchUserStats(context.Background(), "ghost", nil)
		assert.True(t, apperr.HasCode(err, ErrUserNotFound))
	}
	assert.Equal(t, "closed", client.BreakerState())
	assert.Equal(t, 3, mock.hitCount(userInfoOperation))
}

func TestClient_BreakerDisabled(t *testing.T) {
	client := NewClient(Config{Token: "x"})
	assert.Equal(t, "disabled", client.BreakerState())
}
