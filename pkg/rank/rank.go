// Package rank 将用户的 GitHub 活跃度汇总换算为百分位分数与等级。
//
// 分数越低代表越靠前：S+ 为前 1%，B+ 为后 40%。
package rank

import "math"

// 各项指标的权重
const (
	CommitsOffset   = 1.65
	ContribsOffset  = 1.65
	IssuesOffset    = 1.0
	StarsOffset     = 0.75
	PRsOffset       = 0.5
	FollowersOffset = 0.45
	RepoOffset      = 1.0
)

// AllOffsets 正态分布的求值点。commits 的权重不计入。
const AllOffsets = ContribsOffset + IssuesOffset + StarsOffset + PRsOffset + FollowersOffset + RepoOffset

// 各等级的分数上界
const (
	RankSValue       = 1
	RankDoubleAValue = 25
	RankA2Value      = 45
	RankA3Value      = 60
	RankBValue       = 100
)

// TotalValues 正态分布的 sigma
const TotalValues = RankSValue + RankDoubleAValue + RankA2Value + RankA3Value + RankBValue

// Rank 等级与 0-100 的百分位分数
type Rank struct {
	Level string `json:"level"`
	Score uint8  `json:"score"`
}

// Default 尚未计算时的占位等级
func Default() Rank {
	return Rank{Level: "C", Score: 0}
}

// Inputs 参与计算的七项计数
type Inputs struct {
	Commits   int64
	Contribs  int64
	Issues    int64
	Stars     int64
	PRs       int64
	Followers int64
	Repos     int64
}

// Calculate 计算等级，纯函数
func Calculate(in Inputs) Rank {
	score := (float64(in.Commits)*CommitsOffset +
		float64(in.Contribs)*ContribsOffset +
		float64(in.Issues)*IssuesOffset +
		float64(in.Stars)*StarsOffset +
		float64(in.PRs)*PRsOffset +
		float64(in.Followers)*FollowersOffset +
		float64(in.Repos)*RepoOffset) / 100

	normalized := uint8(math.Round(NormalCDF(score, TotalValues, AllOffsets) * 100))

	return Rank{
		Level: levelOf(normalized),
		Score: normalized,
	}
}

func levelOf(score uint8) string {
	switch {
	case score < RankSValue:
		return "S+"
	case score < RankDoubleAValue:
		return "S"
	case score < RankA2Value:
		return "A++"
	case score < RankA3Value:
		return "A+"
	default:
		return "B+"
	}
}

// Abramowitz–Stegun 7.1.26 系数
const (
	asP  = 0.3275911
	asA1 = 0.254829592
	asA2 = -0.284496736
	asA3 = 1.421413741
	asA4 = -1.453152027
	asA5 = 1.061405429
)

// NormalCDF 正态分布 N(mean, sigma) 在 to 处的累积分布函数值，
// 误差函数采用 Abramowitz–Stegun 多项式近似。z 为 ±0 时按正号处理。
func NormalCDF(mean, sigma, to float64) float64 {
	z := (to - mean) / math.Sqrt(2*sigma*sigma)
	t := 1 / (1 + asP*math.Abs(z))
	erf := 1 - ((((asA5*t+asA4)*t+asA3)*t+asA2)*t+asA1)*t*math.Exp(-z*z)

	return 0.5 * (1 + math.Copysign(1, z)*erf)
}
