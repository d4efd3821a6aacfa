// Package logging configures log/slog for relay.
//
// New returns a *slog.Logger in JSON or text format whose handler masks
// credentials before they are written:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Masked values include provider API keys (sk-..., AIza...), key= query
// parameters, bearer tokens, --api-key arguments, and any attribute whose
// key names a credential (api_key, token, authorization, ...).
//
// Request-scoped fields stored with WithRequestID, WithProvider and
// WithModel are added to records logged with a context:
//
//	ctx = logging.WithRequestID(ctx, uuid.NewString())
//	slog.InfoContext(ctx, "completion finished")
package logging
