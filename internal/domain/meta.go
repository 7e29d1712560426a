package domain

// MetaState is a user's cross-run progression: ticket currency, purchased
// unlock tiers, achievements and recent run history.
type MetaState struct {
	Tickets      int              `json:"tickets"`
	Unlocks      map[string][]int `json:"unlocks"`
	Achievements []string         `json:"achievements"`
	History      []RunRecord      `json:"history"`
}

// RunRecord is one finished run in the history log.
type RunRecord struct {
	ID             int64   `json:"id"`
	CompletedAt    string  `json:"completedAt"`
	Result         string  `json:"result"`
	ActsCompleted  int     `json:"actsCompleted"`
	BossesDefeated int     `json:"bossesDefeated"`
	MacguffinID    *string `json:"macguffinId"`
	Difficulty     int     `json:"difficulty"`
	TicketsEarned  int     `json:"ticketsEarned"`
	FinalGold      int     `json:"finalGold"`
	AldricBasic    *string `json:"aldricBasic"`
	PipBasic       *string `json:"pipBasic"`
}

// RunResult is the payload recorded when a run ends.
type RunResult struct {
	Result         string  `json:"result"`
	ActsCompleted  int     `json:"actsCompleted"`
	BossesDefeated int     `json:"bossesDefeated"`
	MacguffinID    *string `json:"macguffinId"`
	Difficulty     int     `json:"difficulty"`
	TicketsEarned  int     `json:"ticketsEarned"`
	FinalGold      int     `json:"finalGold"`
	AldricBasic    *string `json:"aldricBasic"`
	PipBasic       *string `json:"pipBasic"`
}
