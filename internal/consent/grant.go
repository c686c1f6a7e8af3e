package consent

import (
	"context"
	"errors"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/service"
)

// GrantIfAbsent records granted consent only for users with no decision
// on file. An existing grant or revocation is left untouched, so a
// stored revocation keeps blocking the pipeline until the user opts
// back in.
func GrantIfAbsent(ctx context.Context, store service.ConsentStore, userID string) error {
	_, err := store.HasConsent(ctx, userID)
	if errors.Is(err, common.ErrNoConsentRecord) {
		return store.SetConsent(ctx, userID, true)
	}
	return err
}
