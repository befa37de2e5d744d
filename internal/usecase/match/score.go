package match

import (
	"sort"
	"time"

	"github.com/hirewire/vacmatch/internal/repository/posting"
)

// rankCandidates scores candidate rows and returns posting ids ordered by
// score descending, id descending on ties. The id tie-break keeps the order
// total, so pagination cursors stay stable between identical requests.
//
// Scoring starts from skill coverage (the share of a posting's skills the
// user has) and layers flat bonuses and penalties on top:
//
//	coverage below cfg.MinSimilarityPercent drops the row outright;
//	each overlapping skill past cfg.MinSkillsCount adds cfg.BonusPerExtraSkill;
//	covering every requested skill adds cfg.SubsetBonus;
//	each day of freshness inside cfg.RecencyBonusDays adds cfg.RecencyBonusPerDay;
//	each requested skill the posting lacks subtracts cfg.MissingSkillPenalty.
func rankCandidates(rows []posting.CandidateRow, requiredSkills int, cfg Config, now time.Time) []int64 {
	type scored struct {
		id    int64
		score float64
	}

	ranked := make([]scored, 0, len(rows))
	for _, row := range rows {
		if row.TotalSkills == 0 || row.CommonSkills == 0 {
			continue
		}

		coverage := 100 * float64(row.CommonSkills) / float64(row.TotalSkills)
		if coverage < cfg.MinSimilarityPercent {
			continue
		}

		score := coverage
		if extra := row.CommonSkills - cfg.MinSkillsCount; extra > 0 {
			score += cfg.BonusPerExtraSkill * float64(extra)
		}
		if row.CommonSkills == requiredSkills {
			score += cfg.SubsetBonus
		}
		days := int(now.Sub(row.PublishedAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		if fresh := cfg.RecencyBonusDays - days; fresh > 0 {
			score += cfg.RecencyBonusPerDay * float64(fresh)
		}
		if missing := requiredSkills - row.CommonSkills; missing > 0 {
			score -= cfg.MissingSkillPenalty * float64(missing)
		}

		ranked = append(ranked, scored{id: row.ID, score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id > ranked[j].id
	})

	if cfg.ResultLimit > 0 && len(ranked) > cfg.ResultLimit {
		ranked = ranked[:cfg.ResultLimit]
	}

	ids := make([]int64, len(ranked))
	for i, s := range ranked {
		ids[i] = s.id
	}
	return ids
}
