/*
Package tokenization is the client of the card tokenization API.

Every operation returns a *Call immediately and reports its outcome to a
completion function exactly once. Validation and encryption happen on the
calling goroutine; the network round trip happens on a worker goroutine.

Usage:

	// Create a client
	client, err := tokenization.NewClient(baseURL, secretKey,
		tokenization.WithKeyProvider(keys),
		tokenization.WithLogger(logger))

	// Tokenize a card
	call := client.CreateToken(ctx, models.NewCardRequest(card), func(tok *models.Token, err error) {
		...
	})

	// Abandon it; the completion receives a cancelled network error
	call.Cancel()

	// Or block until done
	tok, err := client.CreateTokenSync(ctx, models.NewCardRequest(card))

Errors:

Completions only ever receive *errors.TapError values, one of
serialization, encryption, network, api or decoding.
*/
package tokenization
