package domain

// Part is one scheduled unit of work inside a challenge, identified by (week, day).
type Part struct {
	ID          string   `bson:"_id" json:"id"`
	ChallengeID string   `bson:"challengeId" json:"challengeId"`
	Week        int      `bson:"week" json:"week"` // 1..Duration
	Day         int      `bson:"day" json:"day"`   // 1..Frequency
	Completers  []string `bson:"completers" json:"completers"`
}

// HasCompleter reports whether user has completed the part.
func (p *Part) HasCompleter(user string) bool {
	for _, c := range p.Completers {
		if c == user {
			return true
		}
	}
	return false
}

// NewSchedule lays out one cold part per (week, day) pair.
// IDs are left empty for the caller to allocate.
func NewSchedule(challengeID string, frequency, duration int) []Part {
	if frequency <= 0 || duration <= 0 {
		return nil
	}
	parts := make([]Part, 0, frequency*duration)
	for week := 1; week <= duration; week++ {
		for day := 1; day <= frequency; day++ {
			parts = append(parts, Part{
				ChallengeID: challengeID,
				Week:        week,
				Day:         day,
				Completers:  []string{},
			})
		}
	}
	return parts
}
