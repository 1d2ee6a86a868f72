package votes

import "go.uber.org/zap"

// ReplaceVoterIDs resolves every vote in place and returns how many
// resolved. Unresolved votes keep their placeholder id and are logged by
// name for audit.
func (r *Resolver) ReplaceVoterIDs(eventID, chamber string, votes []Vote, candidates []PersonStub) int {
	n := 0
	for i := range votes {
		id, ok := r.ResolveVoterID(votes[i].VoterName, chamber, candidates)
		if !ok {
			zap.L().Warn("no person found for vote",
				zap.String("component", "votes"),
				zap.String("vote_event", eventID),
				zap.String("voter_name", votes[i].VoterName),
				zap.String("voter_id", votes[i].VoterID))
			continue
		}
		votes[i].VoterID = id
		n++
	}
	return n
}
