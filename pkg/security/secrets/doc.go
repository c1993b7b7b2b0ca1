/*
Package secrets loads credentials from a directory of secret files.

Each secret is a separate file named after it, the layout Kubernetes and
Docker use for mounted secrets:

	/run/secrets/telegram_token
	/run/secrets/api_key

Files must be mode 0600 or 0400. Values are trimmed of surrounding
whitespace and cached. With watching enabled the cache is dropped on any
change in the directory, so a rotated API key takes effect on the next
request:

	fp, err := secrets.NewFileProvider("/run/secrets", true)
	if err != nil {
		return err
	}
	defer fp.Close()

	key, err := fp.GetSecret(ctx, secrets.APIKey)
	if errors.Is(err, secrets.ErrNotFound) {
		// fall back to API_KEY from the environment
	}
*/
package secrets
