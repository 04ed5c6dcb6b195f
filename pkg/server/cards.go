package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"minestats/pkg/card"
	apperr "minestats/pkg/error"
)

// userParam 读取 user 参数并检查白名单。返回 false 时响应已写出。
func (s *Server) userParam(c *gin.Context) (string, bool) {
	login := strings.TrimSpace(c.Query("user"))
	if login == "" {
		c.String(http.StatusNotFound, "no user")
		return "", false
	}
	if !s.allowed(login) {
		s.abortWithError(c, apperr.NewError(apperr.ErrForbidden, "user not allowed").WithContext("login", login))
		return "", false
	}
	return login, true
}

func (s *Server) theme(c *gin.Context) card.Theme {
	th, _ := s.themes.Get(c.Query("theme"))
	return th
}

func boolParam(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.WrapError(apperr.ErrInvalidArgument, "invalid "+name, err)
	}
	return v, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.WrapError(apperr.ErrInvalidArgument, "invalid "+name, err)
	}
	return v, nil
}

// listParam 逗号分隔的列表，去掉空项
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, part := range strings.Split(c.Query(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeSVG(c *gin.Context, body []byte) {
	c.Data(http.StatusOK, SVGContentType, body)
}

func (s *Server) getStatsCard(c *gin.Context) {
	login, ok := s.userParam(c)
	if !ok {
		return
	}

	hideRank, err := boolParam(c, "hide_rank")
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	hideBorder, err := boolParam(c, "hide_border")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	stats, err := s.svc.UserStats(c.Request.Context(), login, listParam(c, "hide_repos"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	svg, err := card.RenderStats(stats, s.theme(c), card.StatsOptions{
		HideRank:   hideRank,
		HideBorder: hideBorder,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	writeSVG(c, svg)
}

func (s *Server) getTopLangsCard(c *gin.Context) {
	login, ok := s.userParam(c)
	if !ok {
		return
	}

	count, err := intParam(c, "langs_count")
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	width, err := intParam(c, "card_width")
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	hideBorder, err := boolParam(c, "hide_border")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	langs, err := s.svc.TopLangs(c.Request.Context(), login)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	svg, err := card.RenderTopLangs(langs, s.theme(c), card.TopLangsOptions{
		Hide:       listParam(c, "hide"),
		Count:      count,
		Width:      width,
		HideBorder: hideBorder,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	writeSVG(c, svg)
}
