package identity

import (
	"fmt"
	"math/rand"
	"net/url"

	"github.com/niranjanisuresh/YouConnect/internal/auth"
	"github.com/niranjanisuresh/YouConnect/internal/domain"
)

// Resolver turns a presented credential into a Participant. Resolution is
// total: any absent, malformed, or failed credential falls back to a
// freshly minted ephemeral identity.
type Resolver struct {
	verifier auth.Verifier
}

func NewResolver(verifier auth.Verifier) *Resolver {
	return &Resolver{verifier: verifier}
}

// Resolve never fails. A verified credential yields a participant
// mirroring the account; everything else yields an ephemeral one scoped
// to connectionID.
func (r *Resolver) Resolve(connectionID, credential string) domain.Participant {
	if credential != "" && r.verifier != nil {
		if account, err := r.verifier.Verify(credential); err == nil {
			return domain.Participant{
				ID:          account.ID,
				DisplayName: account.Username,
				Avatar:      AvatarURL(account.Username, "FF0000"),
			}
		}
	}
	return Ephemeral(connectionID)
}

// Ephemeral mints a per-connection guest identity with a randomized
// display name.
func Ephemeral(connectionID string) domain.Participant {
	name := fmt.Sprintf("User%d", rand.Intn(1000))
	return domain.Participant{
		ID:          "temp_" + connectionID,
		DisplayName: name,
		Avatar:      AvatarURL(name, "666"),
	}
}

// AvatarURL builds a ui-avatars.com image link for a display name.
func AvatarURL(name, background string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=%s&color=fff",
		url.QueryEscape(name), background)
}
