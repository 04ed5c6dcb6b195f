package github

import (
	"context"

	"github.com/sirupsen/logrus"

	"minestats/pkg/rank"
)

// FetchUserStats 拉取用户统计：先查询资料与计数，再分页汇总 star 数，最后计算等级。
// 两步顺序执行，共享同一个聚合截止时间；任一步失败则整体失败，不返回部分结果。
func (c *Client) FetchUserStats(ctx context.Context, login string, hideRepos []string) (UserGithubStats, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	var resp userInfoResponse
	if err := c.query(ctx, userInfoOperation, userInfoQuery, loginVariables{Login: login}, &resp); err != nil {
		return UserGithubStats{}, err
	}
	user := resp.User
	if user == nil {
		return UserGithubStats{}, newUserNotFound(login)
	}
	if user.Login == "" {
		return UserGithubStats{}, newMalformed("UserInfo response has empty login", nil)
	}

	stars, err := c.fetchTotalStars(ctx, login, hideRepos)
	if err != nil {
		return UserGithubStats{}, err
	}

	name := user.Login
	if user.Name != nil && *user.Name != "" {
		name = *user.Name
	}

	stats := UserGithubStats{
		Login:     user.Login,
		Name:      name,
		Stars:     stars,
		Commits:   user.ContributionsCollection.TotalCommitContributions,
		Repos:     user.Repositories.TotalCount,
		PRs:       user.PullRequests.TotalCount,
		Issues:    user.OpenIssues.TotalCount + user.ClosedIssues.TotalCount,
		Contribs:  user.RepositoriesContributedTo.TotalCount,
		Followers: user.Followers.TotalCount,
		CreateAt:  c.now(),
	}
	stats.Rank = rank.Calculate(stats.RankInputs())

	c.log.WithFields(logrus.Fields{
		"login": stats.Login,
		"stars": stats.Stars,
		"rank":  stats.Rank.Level,
		"score": stats.Rank.Score,
	}).Debug("user stats aggregated")
	return stats, nil
}

// FetchTotalStars 分页汇总用户拥有的非 fork 仓库的 star 总数，跳过 hideRepos 中的仓库名
func (c *Client) FetchTotalStars(ctx context.Context, login string, hideRepos []string) (int64, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()
	return c.fetchTotalStars(ctx, login, hideRepos)
}

func (c *Client) fetchTotalStars(ctx context.Context, login string, hideRepos []string) (int64, error) {
	hidden := make(map[string]struct{}, len(hideRepos))
	for _, name := range hideRepos {
		hidden[name] = struct{}{}
	}

	var total int64
	pages, err := paginate(ctx, c.log, repoPageFetcher[starNode](c, userRepoOperation, userRepoQuery, login),
		func(repo *starNode) {
			if _, skip := hidden[repo.Name]; skip {
				return
			}
			total += repo.Stargazers.TotalCount
		})
	if err != nil {
		return 0, err
	}

	c.log.WithFields(logrus.Fields{"login": login, "pages": pages, "stars": total}).Trace("total stars")
	return total, nil
}
