package github

// GraphQL 查询文档与响应结构

const userInfoOperation = "UserInfo"

const userInfoQuery = `query UserInfo($login: String!) {
  user(login: $login) {
    name
    login
    contributionsCollection {
      totalCommitContributions
    }
    repositoriesContributedTo(
      contributionTypes: [COMMIT, ISSUE, PULL_REQUEST, REPOSITORY]
    ) {
      totalCount
    }
    pullRequests {
      totalCount
    }
    openIssues: issues(states: OPEN) {
      totalCount
    }
    closedIssues: issues(states: CLOSED) {
      totalCount
    }
    followers {
      totalCount
    }
    repositories(ownerAffiliations: OWNER) {
      totalCount
    }
  }
}
`

const userRepoOperation = "UserRepo"

const userRepoQuery = `query UserRepo($login: String!, $after: String) {
  user(login: $login) {
    repositories(
      first: 100
      ownerAffiliations: OWNER
      isFork: false
      orderBy: { direction: DESC, field: STARGAZERS }
      after: $after
    ) {
      nodes {
        name
        stargazers {
          totalCount
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`

const topLangOperation = "TopLang"

const topLangQuery = `query TopLang($login: String!, $after: String) {
  user(login: $login) {
    # fetch only owner repos & not forks
    repositories(ownerAffiliations: OWNER, isFork: false, first: 100, after: $after) {
      nodes {
        name
        languages(first: 10, orderBy: { field: SIZE, direction: DESC }) {
          edges {
            size
            node {
              color
              name
            }
          }
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`

type loginVariables struct {
	Login string `json:"login"`
}

type pageVariables struct {
	Login string  `json:"login"`
	After *string `json:"after"`
}

type totalCount struct {
	TotalCount int64 `json:"totalCount"`
}

type userInfoResponse struct {
	User *userInfoUser `json:"user"`
}

type userInfoUser struct {
	Name                    *string `json:"name"`
	Login                   string  `json:"login"`
	ContributionsCollection struct {
		TotalCommitContributions int64 `json:"totalCommitContributions"`
	} `json:"contributionsCollection"`
	RepositoriesContributedTo totalCount `json:"repositoriesContributedTo"`
	PullRequests              totalCount `json:"pullRequests"`
	OpenIssues                totalCount `json:"openIssues"`
	ClosedIssues              totalCount `json:"closedIssues"`
	Followers                 totalCount `json:"followers"`
	Repositories              totalCount `json:"repositories"`
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// repoConnection 一页仓库，N 为单个仓库节点的结构
type repoConnection[N any] struct {
	Nodes    []*N     `json:"nodes"`
	PageInfo pageInfo `json:"pageInfo"`
}

type repoOwner[N any] struct {
	Repositories repoConnection[N] `json:"repositories"`
}

type reposResponse[N any] struct {
	User *repoOwner[N] `json:"user"`
}

type starNode struct {
	Name       string     `json:"name"`
	Stargazers totalCount `json:"stargazers"`
}

type langNode struct {
	Name      string `json:"name"`
	Languages *struct {
		Edges []*langEdge `json:"edges"`
	} `json:"languages"`
}

type langEdge struct {
	Size int64 `json:"size"`
	Node struct {
		Color *string `json:"color"`
		Name  string  `json:"name"`
	} `json:"node"`
}
