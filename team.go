package server

import "sort"

// Team is a derived view over the players assigned to one team id. Score is
// recomputed from member points on every snapshot so it can never drift from
// the roster.
type Team struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
	Score   int      `json:"score"`
}

// teamViewsLocked assembles the per-team breakdown in stable id order.
func (s *Session) teamViewsLocked() []Team {
	if len(s.teams) == 0 {
		return nil
	}
	views := make([]Team, 0, len(s.teams))
	for id, members := range s.teams {
		team := Team{ID: id, Members: make([]string, 0, len(members))}
		for username := range members {
			team.Members = append(team.Members, username)
			if state, ok := s.players[username]; ok {
				team.Score += state.Points
			}
		}
		sort.Strings(team.Members)
		views = append(views, team)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}
