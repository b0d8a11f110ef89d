package game

// StarRating maps a final score onto 0–3 stars:
// ≥90% → 3, ≥70% → 2, ≥50% → 1, otherwise 0.
func StarRating(score, total int) int {
	if total <= 0 {
		return 0
	}
	// integer form of score/total >= p, exact at the breakpoints
	switch pct := score * 100; {
	case pct >= 90*total:
		return 3
	case pct >= 70*total:
		return 2
	case pct >= 50*total:
		return 1
	}
	return 0
}
