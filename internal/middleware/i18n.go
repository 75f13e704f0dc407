package middleware

import (
	"context"
	"net/http"
	"strings"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves an ISO 3166-1 country code for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N resolves the request's locale and country and stores both in
// the context. The portal serves Dutch and English; visitors see Dutch
// unless their browser or location says otherwise. The resolved locale
// is echoed as Content-Language so the frontend can trust it.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := resolveLocale(r, defaultLocale, country)
			w.Header().Set("Content-Language", locale)

			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveLocale prefers an explicit X-Locale header from the portal,
// then the browser's Accept-Language, then the request country. Dutch
// wins for the Netherlands and Flanders.
func resolveLocale(r *http.Request, fallback, country string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		return supportedLocale(v)
	}
	if v := firstLanguage(r.Header.Get("Accept-Language")); v != "" {
		return supportedLocale(v)
	}
	switch {
	case country == "NL" || country == "BE":
		return "nl"
	case country != "":
		return "en"
	}
	if fallback != "" {
		return fallback
	}
	return "nl"
}

// supportedLocale folds any language tag onto the two languages the
// notification templates and portal exist in.
func supportedLocale(tag string) string {
	if strings.HasPrefix(strings.ToLower(tag), "nl") {
		return "nl"
	}
	return "en"
}

// firstLanguage returns the first tag from an Accept-Language header,
// ignoring quality weights.
func firstLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if tag = strings.TrimSpace(tag); tag != "" {
			return tag
		}
	}
	return ""
}

// resolveCountry tries proxy-provided country headers first, then the
// Accept-Language region subtag, then the GeoIP database. Any failure
// just means the application record goes without a country.
func resolveCountry(r *http.Request, lookup CountryLookup) string {
	for _, header := range []string{"CF-IPCountry", "X-Country-Code"} {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return strings.ToUpper(v)
		}
	}
	if region := languageRegion(r.Header.Get("Accept-Language")); region != "" {
		return region
	}
	if lookup == nil {
		return ""
	}
	ip := clientAddr(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(country)
}

// languageRegion extracts the region from the first Accept-Language
// entry carrying one, so nl-BE resolves to BE without a lookup.
func languageRegion(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		tag = strings.TrimSpace(tag)
		if idx := strings.IndexAny(tag, "-_"); idx > 0 && idx < len(tag)-1 {
			return strings.ToUpper(tag[idx+1:])
		}
	}
	return ""
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "nl"
}

// CountryFromContext returns the request's resolved country code,
// empty when nothing could place it.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}
