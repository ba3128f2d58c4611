package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/libris-app/libris-server/internal/auth"
	"github.com/libris-app/libris-server/internal/config"
	"github.com/libris-app/libris-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.Path)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.TokenKey = key

	log.Info("Authentication key loaded", "token_duration", cfg.Auth.TokenDuration)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	keyHex := hex.EncodeToString([]byte(authKey))
	return auth.NewTokenService(keyHex, cfg.Auth.TokenDuration)
}

// ProvideCredentialVerifier provides the production password verifier.
func ProvideCredentialVerifier(i do.Injector) (auth.CredentialVerifier, error) {
	return auth.Argon2Verifier{}, nil
}
