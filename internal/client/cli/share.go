package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
)

// share prompts for a secret, a passphrase and an optional TTL, stores the
// secret on the server and prints the one-time lookup key.
func (a *App) share(ctx context.Context) {

	secret, err := GetMultiline(a.reader, "Enter the secret to share", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if secret == "" {
		fmt.Fprintln(a.out, "Nothing to share")
		return
	}

	passphrase, err := GetPassphrase(a.out, "Enter passphrase")
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	defer common.WipeByteArray(passphrase)

	if len(passphrase) == 0 {
		fmt.Fprintln(a.out, "Passphrase must not be empty")
		return
	}

	ttlText, err := GetSimpleText(a.reader, "TTL, e.g. 1h30m (empty for server default)", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	var ttl time.Duration
	if ttlText != "" {
		ttl, err = time.ParseDuration(ttlText)
		if err != nil || ttl < 0 {
			fmt.Fprintln(a.out, "Invalid TTL:", ttlText)
			return
		}
	}

	key, err := a.api.GenerateSecret(ctx, secret, string(passphrase), ttl)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	fmt.Fprintln(a.out, "Secret stored. One-time key:", key)
}
