package github

import (
	"context"

	"github.com/sirupsen/logrus"
)

// FetchTopLangs 分页遍历用户拥有的非 fork 仓库，按语言名合并各仓库的语言字节数。
// 结果每次从零构建，不与旧的 TopLangs 合并。
func (c *Client) FetchTopLangs(ctx context.Context, login string) (TopLangs, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	langs := make(map[string]Lang)
	pages, err := paginate(ctx, c.log, repoPageFetcher[langNode](c, topLangOperation, topLangQuery, login),
		func(repo *langNode) {
			if repo.Languages == nil {
				return
			}
			for _, edge := range repo.Languages.Edges {
				if edge == nil || edge.Node.Name == "" {
					continue
				}
				MergeLang(langs, edge.Node.Name, edge.Node.Color, edge.Size)
			}
		})
	if err != nil {
		return TopLangs{}, err
	}

	c.log.WithFields(logrus.Fields{"login": login, "pages": pages, "langs": len(langs)}).Debug("top langs aggregated")
	return TopLangs{Langs: langs, CreateAt: c.now()}, nil
}
