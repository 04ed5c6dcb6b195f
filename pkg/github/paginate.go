package github

import (
	"context"

	"github.com/sirupsen/logrus"
)

// pageFetcher 拉取 after 之后的一页；after 为 nil 表示第一页
type pageFetcher[N any] func(ctx context.Context, after *string) (repoConnection[N], error)

// paginate 游标分页循环：hasNextPage 为 true 时带上一页的 endCursor 继续。
// 游标缺失、为空或重复出现时视为结束，避免死循环。返回拉取的页数。
func paginate[N any](ctx context.Context, log *logrus.Entry, fetch pageFetcher[N], visit func(*N)) (int, error) {
	var after *string
	seen := make(map[string]struct{})
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return pages, classifyTransportError(ctx, "pagination", err)
		}

		page, err := fetch(ctx, after)
		if err != nil {
			return pages, err
		}
		pages++

		for _, node := range page.Nodes {
			if node != nil {
				visit(node)
			}
		}

		if !page.PageInfo.HasNextPage {
			return pages, nil
		}
		cursor := page.PageInfo.EndCursor
		if cursor == nil || *cursor == "" {
			log.WithField("page", pages).Warn("hasNextPage without endCursor, stop paging")
			return pages, nil
		}
		if _, dup := seen[*cursor]; dup {
			log.WithFields(logrus.Fields{"page": pages, "cursor": *cursor}).Warn("cursor repeated, stop paging")
			return pages, nil
		}
		seen[*cursor] = struct{}{}
		next := *cursor
		after = &next
	}
}

// repoPageFetcher 绑定查询与用户，生成仓库分页函数
func repoPageFetcher[N any](c *Client, op, document, login string) pageFetcher[N] {
	return func(ctx context.Context, after *string) (repoConnection[N], error) {
		var resp reposResponse[N]
		if err := c.query(ctx, op, document, pageVariables{Login: login, After: after}, &resp); err != nil {
			return repoConnection[N]{}, err
		}
		if resp.User == nil {
			return repoConnection[N]{}, newUserNotFound(login)
		}
		return resp.User.Repositories, nil
	}
}
