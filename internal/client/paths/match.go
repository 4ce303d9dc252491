package paths

import "github.com/dmitrijs2005/reconkeeper/internal/client/models"

// MatchPaths are the keys of one match.
type MatchPaths struct {
	Dir      string
	Matches0 string
	Matches1 string
	Preview  string
	Valid    string
	Pose     string
}

func (p MatchPaths) All() []string {
	return []string{p.Matches0, p.Matches1, p.Preview, p.Valid, p.Pose}
}

// MatchKeys resolves every key of m.
func MatchKeys(m models.Match) MatchPaths {
	dir := join(matchesRoot, m.ID)
	return MatchPaths{
		Dir:      dir,
		Matches0: join(dir, "matches0.npy"),
		Matches1: join(dir, "matches1.npy"),
		Preview:  join(dir, "matches.png"),
		Valid:    join(dir, "valid_matches.json"),
		Pose:     join(dir, "pose.json"),
	}
}
