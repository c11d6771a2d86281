package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
)

// reveal fetches and consumes the secret stored under a lookup key. The key
// may be passed as an argument or entered at the prompt.
func (a *App) reveal(ctx context.Context, args []string) {

	var key string
	var err error

	if len(args) > 0 {
		key = args[0]
	} else {
		key, err = GetSimpleText(a.reader, "Enter the secret key", a.out)
		if err != nil {
			fmt.Fprintln(a.out, "Error:", err)
			return
		}
	}
	if key == "" {
		fmt.Fprintln(a.out, "Key must not be empty")
		return
	}

	passphrase, err := GetPassphrase(a.out, "Enter passphrase")
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	defer common.WipeByteArray(passphrase)

	secret, err := a.api.GetSecret(ctx, key, string(passphrase))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorSecretNotFound):
			fmt.Fprintln(a.out, "No secret found under this key. It may have been read already or expired.")
		case errors.Is(err, common.ErrorInvalidPassphrase):
			fmt.Fprintln(a.out, "Invalid passphrase. The secret is still intact.")
		default:
			fmt.Fprintln(a.out, "Error:", err)
		}
		return
	}

	fmt.Fprintln(a.out, "--- secret ---")
	fmt.Fprintln(a.out, secret)
	fmt.Fprintln(a.out, "--------------")
	fmt.Fprintln(a.out, "The secret has been destroyed on the server.")
}
