package careauth

import "context"

type requestIDContextKey struct{}
type localeContextKey struct{}
type appVersionContextKey struct{}

// WithRequestID attaches a caller-chosen correlation ID to ctx. The HTTP
// client sends it as X-Request-ID instead of minting one, which lets a host
// application correlate engine calls with its own tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// WithLocale attaches a BCP 47 locale tag to ctx. The platform localizes
// verification emails and SMS templates from it.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// WithAppVersion attaches the host application's version string to ctx for
// server-side minimum-version gating.
func WithAppVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, appVersionContextKey{}, version)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

func localeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	locale, _ := ctx.Value(localeContextKey{}).(string)
	return locale
}

func appVersionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	version, _ := ctx.Value(appVersionContextKey{}).(string)
	return version
}
