package email

import (
	"encoding/json"

	"jobbridge_backend/internal/repositories"
)

// RepoOptOuts resolves opt-out preferences from the user's stored
// EmailPrefs map. A missing key means opted in.
type RepoOptOuts struct {
	users repositories.UserRepository
}

func NewRepoOptOuts(users repositories.UserRepository) *RepoOptOuts {
	return &RepoOptOuts{users: users}
}

func (c *RepoOptOuts) IsOptedOut(userID string, t Type) (bool, error) {
	user, err := c.users.FindByID(userID)
	if err != nil {
		return false, err
	}
	if len(user.EmailPrefs) == 0 {
		return false, nil
	}

	var prefs map[string]bool
	if err := json.Unmarshal(user.EmailPrefs, &prefs); err != nil {
		return false, err
	}

	optedIn, present := prefs[string(t)]
	return present && !optedIn, nil
}
