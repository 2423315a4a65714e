package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/policy"
)

// PolicyGrants attaches messaging grants to identities.
type PolicyGrants interface {
	Grant(ctx context.Context, identityID string, p policy.Policy) (already bool, err error)
}

// AttachPolicy grants p to the caller. Attaching a grant the caller already
// holds is success, so the endpoint is idempotent.
func AttachPolicy(grants PolicyGrants, p policy.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		already, err := grants.Grant(r.Context(), identityID, p)
		if err != nil {
			slog.Error("failed to attach policy", "policy", p, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if already {
			slog.Debug("policy already attached", "policy", p, "identity_id", identityID)
		}

		writeJSON(w, http.StatusOK, map[string]bool{"status": true})
	}
}
