package match

import (
	svcErr "github.com/kindredmatch/kindred/internal/errors"
)

// Scoring constants. All arithmetic is integer and truncating; rounding
// behavior is part of the contract.
const (
	maxScore          uint64 = 100
	interestWeightPct uint64 = 60
	locationWeightPct uint64 = 40
	maxDistance       int64  = 1000
)

// Score computes the interest-overlap score between two verified-interest
// sequences, duplicates preserved as recorded.
//
// Every equal pair across the two sequences contributes a weight, including
// repeat pairings of duplicate entries: rare tokens weigh 100, a token
// verified n times weighs 100/min(n, 100). The sum is clamped to 100.
// An empty sequence on either side is NoVerifiedInterests, which is distinct
// from a zero score due to no overlap.
func Score(interests1, interests2 []uint64, popularity map[uint64]uint64) (uint64, error) {
	if len(interests1) == 0 || len(interests2) == 0 {
		return 0, svcErr.ErrNoVerifiedInterests
	}

	matched := false
	var score uint64
	for _, a := range interests1 {
		for _, b := range interests2 {
			if a != b {
				continue
			}
			matched = true
			count := popularity[a]
			if count == 0 {
				score += maxScore
			} else {
				score += maxScore / min(count, maxScore)
			}
		}
	}

	if !matched {
		return 0, nil
	}
	if score > maxScore {
		score = maxScore
	}
	return score, nil
}

// LocationScore scores geo-proximity from raw integer coordinates.
//
// Zero longitude or latitude on either side is the unset sentinel and scores
// zero. Otherwise the Manhattan distance d maps to 100 at d == 0, 0 beyond
// maxDistance, and 100 - d*100/1000 in between (truncating).
func LocationScore(long1, lat1, long2, lat2 int64) uint64 {
	if long1 == 0 || lat1 == 0 || long2 == 0 || lat2 == 0 {
		return 0
	}

	d := absDiff(long1, long2) + absDiff(lat1, lat2)
	switch {
	case d == 0:
		return maxScore
	case d > maxDistance:
		return 0
	default:
		return maxScore - uint64(d)*maxScore/uint64(maxDistance)
	}
}

// TotalScore blends interest and location scores 60/40 and applies the boost
// multiplier: ((interest*60 + location*40) * (100 + boostLevel)) / 10000.
// The multiply saturates instead of wrapping when an enormous boost level
// would overflow uint64.
func TotalScore(interestScore, locationScore, boostLevel uint64) uint64 {
	blended := interestScore*interestWeightPct + locationScore*locationWeightPct

	multiplier := uint64(100) + boostLevel
	if multiplier < boostLevel {
		multiplier = ^uint64(0)
	}

	product := blended * multiplier
	if blended != 0 && product/blended != multiplier {
		product = ^uint64(0)
	}
	return product / 10000
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
