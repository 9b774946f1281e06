package middleware

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/config"
)

// oidcVerifier wraps the OIDC token verifier so the key auth validator can
// fall back to it unconditionally. A nil receiver rejects every token, which
// is what happens when no issuer is configured.
type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func newOIDCVerifier(applicationConfig *config.ApplicationConfig) (*oidcVerifier, error) {
	if applicationConfig.OIDCIssuer == "" {
		return nil, nil
	}

	provider, err := oidc.NewProvider(applicationConfig.Context, applicationConfig.OIDCIssuer)
	if err != nil {
		return nil, err
	}

	oidcConfig := &oidc.Config{ClientID: applicationConfig.OIDCClientID}
	if applicationConfig.OIDCClientID == "" {
		oidcConfig.SkipClientIDCheck = true
	}

	return &oidcVerifier{verifier: provider.Verifier(oidcConfig)}, nil
}

func (v *oidcVerifier) verify(ctx context.Context, rawToken string) bool {
	if v == nil {
		return false
	}
	if _, err := v.verifier.Verify(ctx, rawToken); err != nil {
		xlog.Debug("OIDC token rejected", "error", err)
		return false
	}
	return true
}
