package app

import (
	"net/url"
	"strings"
)

// postgresDSN tags the connection with applicationName and reports the database
// name for span attributes. Both the URL and the key=value forms lib/pq accepts
// are handled; an explicit application_name always wins.
func postgresDSN(raw, applicationName string) (dsn, dbName string) {
	raw = strings.TrimSpace(raw)
	applicationName = strings.TrimSpace(applicationName)

	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		query := parsed.Query()
		if applicationName != "" && query.Get("application_name") == "" {
			query.Set("application_name", applicationName)
			parsed.RawQuery = query.Encode()
		}
		return parsed.String(), strings.TrimPrefix(parsed.Path, "/")
	}

	params := keyValueParams(raw)
	if applicationName != "" && params["application_name"] == "" && raw != "" {
		raw += " application_name=" + quoteKeyValue(applicationName)
	}
	return raw, params["dbname"]
}

// keyValueParams reads "host=x dbname='my db'" style DSNs. Backslash escapes
// inside quotes are not needed for the keys read here.
func keyValueParams(raw string) map[string]string {
	out := map[string]string{}
	for len(raw) > 0 {
		raw = strings.TrimLeft(raw, " \t\n")
		key, rest, ok := strings.Cut(raw, "=")
		if !ok {
			break
		}
		key = strings.TrimSpace(key)
		rest = strings.TrimLeft(rest, " ")

		var value string
		if strings.HasPrefix(rest, "'") {
			end := strings.IndexByte(rest[1:], '\'')
			if end < 0 {
				value, raw = rest[1:], ""
			} else {
				value, raw = rest[1:end+1], rest[end+2:]
			}
		} else {
			value, raw, _ = strings.Cut(rest, " ")
		}
		out[key] = value
	}
	return out
}

func quoteKeyValue(v string) string {
	if strings.ContainsAny(v, " '") {
		return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	}
	return v
}
