package service

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/cocoiru/internal/models"
)

type Identity struct {
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"-"`
}

func CommunitySubject(id uint) string {
	return models.RoleCommunity + ":" + strconv.FormatUint(uint64(id), 10)
}

func GovSubject(username string) string {
	return models.RoleGov + ":" + username
}

// CommunityID extracts the community id from a community subject.
func (i *Identity) CommunityID() (uint, bool) {
	ref, ok := strings.CutPrefix(i.Subject, models.RoleCommunity+":")
	if !ok || i.Role != models.RoleCommunity {
		return 0, false
	}
	id, err := strconv.ParseUint(ref, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Require is the role gate. It only inspects the identity.
func Require(id *Identity, allowed ...string) (*Identity, error) {
	if id == nil {
		return nil, ErrMissingToken
	}
	if !slices.Contains(allowed, id.Role) {
		return nil, ErrInsufficientRole
	}
	return id, nil
}
