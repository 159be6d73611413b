package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"

	"github.com/joncooperworks/keystorecipher/config"
	"github.com/joncooperworks/keystorecipher/crypto"
	"github.com/joncooperworks/keystorecipher/crypto/keystore"
	"github.com/joncooperworks/keystorecipher/prefs"
)

type app struct {
	cfg    config.Config
	logger *slog.Logger

	// facility is nil when the legacy path is in use.
	facility keystore.KeyFacility
	legacy   *keystore.KeyringLegacyFacility
	store    *prefs.FileStore

	manager *crypto.EnvelopeKeyManager
	cipher  *crypto.StringCipher
}

func newApp(cfg config.Config, logger *slog.Logger, setup crypto.CredentialSetup) (*app, error) {
	facility, err := openFacility(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		facility: facility,
		legacy:   keystore.NewLegacyFacility(cfg.KeystoreOptions()),
		store:    prefs.NewFileStore(cfg.PrefsPath),
	}

	managerCfg := crypto.ManagerConfig{
		Legacy:          a.legacy,
		Store:           a.store,
		CredentialSetup: setup,
		Logger:          logger,
	}
	var random crypto.RandomSource = crypto.SystemRandom{}
	if facility != nil {
		managerCfg.Facility = facility
		random = facility
	}

	a.manager, err = crypto.NewEnvelopeKeyManager(managerCfg)
	if err != nil {
		return nil, err
	}
	a.cipher = crypto.NewStringCipher(a.manager, random, logger)
	return a, nil
}

// openFacility returns the modern facility selected by cfg.Backend, or nil
// when the legacy keyring should be used.
func openFacility(cfg config.Config, logger *slog.Logger) (keystore.KeyFacility, error) {
	if cfg.Backend == config.BackendLegacy {
		return nil, nil
	}

	facility, err := keystore.NewFacility(cfg.KeystoreOptions())
	if err == nil {
		return facility, nil
	}
	if cfg.Backend == config.BackendModern {
		return nil, fmt.Errorf("modern key facility unavailable: %w", err)
	}
	logger.Warn("modern key facility unavailable, using legacy keyring", "error", err)
	return nil, nil
}

// aliases lists the aliases known to the active backend.
func (a *app) aliases() ([]string, error) {
	if a.manager.Backend().Name() == "modern" {
		return a.facility.ListAliases()
	}
	return a.legacy.ListAliases()
}

// credentialInstructions tells the user how to configure the legacy keyring
// passphrase. The process exits right after it runs.
func credentialInstructions(w io.Writer) crypto.CredentialSetup {
	return crypto.CredentialSetupFunc(func() error {
		_, err := fmt.Fprintln(w, color.RedString("✗")+" No passphrase is configured for the legacy keyring\n"+
			color.CyanString("→")+" Set "+color.YellowString(config.EnvLegacyPassphrase)+" and run the command again")
		return err
	})
}
